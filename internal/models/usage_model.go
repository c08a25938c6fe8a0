package models

import (
	"time"

	"github.com/google/uuid"
)

type UsageRecord struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AgentID      string    `db:"agent_id" json:"agent_id"`
	SessionKey   string    `db:"session_key" json:"session_key"`
	Model        string    `db:"model" json:"model"`
	InputTokens  int64     `db:"input_tokens" json:"input_tokens"`
	OutputTokens int64     `db:"output_tokens" json:"output_tokens"`
	CostUSD      float64   `db:"cost_usd" json:"cost_usd"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`
}

type UsageSummary struct {
	AgentID      string  `db:"agent_id" json:"agent_id"`
	Model        string  `db:"model" json:"model"`
	Requests     int64   `db:"requests" json:"requests"`
	InputTokens  int64   `db:"input_tokens" json:"input_tokens"`
	OutputTokens int64   `db:"output_tokens" json:"output_tokens"`
	CostUSD      float64 `db:"cost_usd" json:"cost_usd"`
}

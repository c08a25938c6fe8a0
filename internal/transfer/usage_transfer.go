package transfer

import (
	"strings"
	"time"
)

type UsageIngest struct {
	AgentID      string     `json:"agent_id"`
	SessionKey   string     `json:"session_key"`
	Model        string     `json:"model"`
	InputTokens  int64      `json:"input_tokens"`
	OutputTokens int64      `json:"output_tokens"`
	CostUSD      float64    `json:"cost_usd"`
	RecordedAt   *time.Time `json:"recorded_at"`
}

func (u *UsageIngest) Validate() error {
	if strings.TrimSpace(u.AgentID) == "" {
		return invalid("agent_id", "agent_id is required")
	}
	if strings.TrimSpace(u.Model) == "" {
		return invalid("model", "model is required")
	}
	if u.InputTokens < 0 || u.OutputTokens < 0 || u.CostUSD < 0 {
		return invalid("tokens", "usage values cannot be negative")
	}
	return nil
}

package models

import "time"

const (
	AgentStatusOnline  = "online"
	AgentStatusBusy    = "busy"
	AgentStatusIdle    = "idle"
	AgentStatusOffline = "offline"
	AgentStatusError   = "error"
)

type Agent struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Role          string    `db:"role" json:"role"`
	Status        string    `db:"status" json:"status"`
	CurrentTask   *string   `db:"current_task" json:"current_task"`
	Model         *string   `db:"model" json:"model"`
	LastHeartbeat time.Time `db:"last_heartbeat" json:"last_heartbeat"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

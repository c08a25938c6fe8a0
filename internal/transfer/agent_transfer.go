package transfer

import (
	"strings"

	"github.com/maheshrc27/mission-control/internal/models"
)

type AgentHeartbeat struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	CurrentTask *string `json:"current_task"`
	Model       *string `json:"model"`
}

func (h *AgentHeartbeat) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return invalid("id", "id is required")
	}
	switch h.Status {
	case models.AgentStatusOnline, models.AgentStatusBusy, models.AgentStatusIdle,
		models.AgentStatusOffline, models.AgentStatusError:
		return nil
	case "":
		return invalid("status", "status is required")
	default:
		return invalid("status", "unknown status "+h.Status)
	}
}

type SessionMessage struct {
	Message string `json:"message"`
}

func (m *SessionMessage) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return invalid("message", "message is required")
	}
	return nil
}

package transfer

import (
	"encoding/json"
	"strings"
)

// CronJobInput is one job definition as pushed by the orchestrator. Schedule
// is kept raw because it arrives either as an object or a JSON encoded string.
type CronJobInput struct {
	ID            string          `json:"id"`
	JobID         string          `json:"jobId"`
	AgentID       string          `json:"agentId"`
	Name          string          `json:"name"`
	Enabled       *bool           `json:"enabled"`
	Schedule      json.RawMessage `json:"schedule"`
	Payload       *CronPayload    `json:"payload"`
	PayloadKind   string          `json:"payloadKind"`
	SessionTarget string          `json:"sessionTarget"`
	State         *CronState      `json:"state"`
}

type CronPayload struct {
	Kind string `json:"kind"`
}

type CronState struct {
	LastRunAtMs int64 `json:"lastRunAtMs"`
	NextRunAtMs int64 `json:"nextRunAtMs"`
}

// Key returns jobId, falling back to id.
func (j *CronJobInput) Key() string {
	if j.JobID != "" {
		return strings.TrimSpace(j.JobID)
	}
	return strings.TrimSpace(j.ID)
}

type CronSyncError struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

type CronSyncResult struct {
	Synced int             `json:"synced"`
	Failed int             `json:"failed"`
	Errors []CronSyncError `json:"errors"`
}

type CronAction struct {
	JobID  string `json:"jobId"`
	Action string `json:"action"`
}

func (a *CronAction) Validate() error {
	if strings.TrimSpace(a.JobID) == "" {
		return invalid("jobId", "jobId is required")
	}
	switch a.Action {
	case "enable", "disable", "run":
		return nil
	case "":
		return invalid("action", "action is required")
	default:
		return invalid("action", "action must be one of enable, disable, run")
	}
}

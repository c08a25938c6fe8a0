package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type CronService interface {
	Sync(ctx context.Context, body []byte) (*transfer.CronSyncResult, error)
	List(ctx context.Context, agentID string) ([]*models.CronJob, error)
	Action(ctx context.Context, action *transfer.CronAction) (json.RawMessage, error)
}

type cronService struct {
	jobs    repository.CronJobRepository
	gateway GatewayService
	events  events.Publisher
	now     func() time.Time
}

func NewCronService(jobs repository.CronJobRepository, gateway GatewayService, ev events.Publisher) CronService {
	return &cronService{
		jobs:    jobs,
		gateway: gateway,
		events:  ev,
		now:     time.Now,
	}
}

// decodeCronBatch accepts a bare array of jobs or an object with a jobs array.
// Elements are kept raw so one malformed job does not sink the batch.
func decodeCronBatch(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &transfer.ValidationError{Field: "body", Message: "body is required"}
	}

	var items []json.RawMessage
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, &transfer.ValidationError{Field: "body", Message: "invalid JSON array"}
		}
	case '{':
		var wrapper struct {
			Jobs *[]json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Jobs == nil {
			return nil, &transfer.ValidationError{Field: "jobs", Message: "expected an array of jobs or an object with a jobs array"}
		}
		items = *wrapper.Jobs
	default:
		return nil, &transfer.ValidationError{Field: "body", Message: "expected an array of jobs or an object with a jobs array"}
	}
	return items, nil
}

func (s *cronService) Sync(ctx context.Context, body []byte) (*transfer.CronSyncResult, error) {
	items, err := decodeCronBatch(body)
	if err != nil {
		return nil, err
	}

	result := &transfer.CronSyncResult{Errors: []transfer.CronSyncError{}}
	for _, item := range items {
		jobID, err := s.syncOne(ctx, item)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, transfer.CronSyncError{JobID: jobID, Error: err.Error()})
			continue
		}
		result.Synced++
	}

	if result.Failed > 0 {
		slog.Info("cron sync finished with errors", "synced", result.Synced, "failed", result.Failed)
	}
	s.events.Publish(events.Event{Type: events.CronSynced, Entity: "cron_job", Data: result})
	return result, nil
}

func (s *cronService) syncOne(ctx context.Context, item json.RawMessage) (string, error) {
	var in transfer.CronJobInput
	if err := json.Unmarshal(item, &in); err != nil {
		return "", fmt.Errorf("invalid job: %v", err)
	}

	jobID := in.Key()
	if jobID == "" {
		return "", fmt.Errorf("jobId is required")
	}

	schedule, err := ParseCronSchedule(in.Schedule)
	if err != nil {
		return jobID, err
	}

	now := s.now().UTC()
	job := &models.CronJob{
		JobID:         jobID,
		Name:          strings.TrimSpace(in.Name),
		Enabled:       in.Enabled == nil || *in.Enabled,
		Schedule:      schedule,
		PayloadKind:   in.PayloadKind,
		SessionTarget: in.SessionTarget,
		SyncedAt:      now,
	}
	if job.Name == "" {
		job.Name = jobID
	}
	if in.AgentID != "" {
		job.AgentID = strPtr(in.AgentID)
	}
	if in.Payload != nil && in.Payload.Kind != "" {
		job.PayloadKind = in.Payload.Kind
	}
	if in.State != nil {
		if in.State.LastRunAtMs > 0 {
			job.LastRunAt = timePtr(time.UnixMilli(in.State.LastRunAtMs).UTC())
		}
		if in.State.NextRunAtMs > 0 {
			job.NextRunAt = timePtr(time.UnixMilli(in.State.NextRunAtMs).UTC())
		}
	}
	if job.NextRunAt == nil && job.Enabled {
		job.NextRunAt = NextRun(schedule, now)
	}

	if err := s.jobs.Upsert(ctx, job); err != nil {
		return jobID, fmt.Errorf("storage: %v", err)
	}
	return jobID, nil
}

func (s *cronService) List(ctx context.Context, agentID string) ([]*models.CronJob, error) {
	return s.jobs.List(ctx, agentID)
}

// Action forwards enable, disable or run to the gateway and mirrors the
// enabled flag locally once the gateway accepts it.
func (s *cronService) Action(ctx context.Context, action *transfer.CronAction) (json.RawMessage, error) {
	job, err := s.jobs.GetByJobID(ctx, action.JobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}

	reply, err := s.gateway.CronAction(ctx, job.JobID, action.Action)
	if err != nil {
		return nil, err
	}

	switch action.Action {
	case "enable", "disable":
		if err := s.jobs.SetEnabled(ctx, job.JobID, action.Action == "enable"); err != nil {
			return nil, err
		}
	}

	s.events.Publish(events.Event{
		Type:   events.CronUpdated,
		Entity: "cron_job",
		ID:     job.JobID,
		Data:   map[string]string{"action": action.Action},
	})
	return reply, nil
}

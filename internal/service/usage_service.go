package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

const defaultUsageWindow = 30 * 24 * time.Hour

type UsageService interface {
	Ingest(ctx context.Context, body []byte) (int, error)
	Summary(ctx context.Context, since *time.Time) ([]*models.UsageSummary, error)
}

type usageService struct {
	usage  repository.UsageRepository
	events events.Publisher
	now    func() time.Time
}

func NewUsageService(usage repository.UsageRepository, ev events.Publisher) UsageService {
	return &usageService{usage: usage, events: ev, now: time.Now}
}

// Ingest stores a single record or an array of records. The batch is
// rejected whole when any record is invalid.
func (s *usageService) Ingest(ctx context.Context, body []byte) (int, error) {
	body = bytes.TrimSpace(body)
	var inputs []transfer.UsageIngest
	switch {
	case len(body) > 0 && body[0] == '[':
		if err := json.Unmarshal(body, &inputs); err != nil {
			return 0, &transfer.ValidationError{Field: "body", Message: "invalid JSON array"}
		}
	case len(body) > 0 && body[0] == '{':
		var one transfer.UsageIngest
		if err := json.Unmarshal(body, &one); err != nil {
			return 0, &transfer.ValidationError{Field: "body", Message: "invalid JSON object"}
		}
		inputs = append(inputs, one)
	default:
		return 0, &transfer.ValidationError{Field: "body", Message: "expected a usage record or an array of them"}
	}

	now := s.now().UTC()
	records := make([]*models.UsageRecord, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if err := in.Validate(); err != nil {
			var ve *transfer.ValidationError
			if errors.As(err, &ve) {
				ve.Field = fmt.Sprintf("[%d].%s", i, ve.Field)
			}
			return 0, err
		}
		rec := &models.UsageRecord{
			AgentID:      strings.TrimSpace(in.AgentID),
			SessionKey:   in.SessionKey,
			Model:        in.Model,
			InputTokens:  in.InputTokens,
			OutputTokens: in.OutputTokens,
			CostUSD:      in.CostUSD,
			RecordedAt:   now,
		}
		if in.RecordedAt != nil {
			rec.RecordedAt = in.RecordedAt.UTC()
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return 0, nil
	}
	if err := s.usage.CreateBatch(ctx, records); err != nil {
		return 0, err
	}

	s.events.Publish(events.Event{Type: events.UsageRecorded, Entity: "usage", Data: map[string]int{"records": len(records)}})
	return len(records), nil
}

func (s *usageService) Summary(ctx context.Context, since *time.Time) ([]*models.UsageSummary, error) {
	from := s.now().Add(-defaultUsageWindow)
	if since != nil {
		from = *since
	}
	return s.usage.Summary(ctx, from.UTC())
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

var improvementWorkflow = workflow{
	models.ImprovementStatusProposed:    {models.ImprovementStatusApproved, models.ImprovementStatusRejected},
	models.ImprovementStatusApproved:    {models.ImprovementStatusImplemented},
	models.ImprovementStatusRejected:    {},
	models.ImprovementStatusImplemented: {},
}

type ImprovementService interface {
	Create(ctx context.Context, ic *transfer.ImprovementCreation) (*models.Improvement, error)
	List(ctx context.Context, status string) ([]*models.Improvement, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Improvement, error)
}

type improvementService struct {
	improvements repository.ImprovementRepository
	events       events.Publisher
	now          func() time.Time
}

func NewImprovementService(improvements repository.ImprovementRepository, ev events.Publisher) ImprovementService {
	return &improvementService{improvements: improvements, events: ev, now: time.Now}
}

func (s *improvementService) Create(ctx context.Context, ic *transfer.ImprovementCreation) (*models.Improvement, error) {
	imp := &models.Improvement{
		SourceRef:   "manual-" + uuid.NewString(),
		Title:       strings.TrimSpace(ic.Title),
		Description: ic.Description,
		Category:    ic.Category,
		Impact:      ic.Impact,
		AgentID:     ic.AgentID,
		Status:      models.ImprovementStatusProposed,
	}
	if imp.Category == "" {
		imp.Category = "idea"
	}

	id, err := s.improvements.Create(ctx, imp)
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *improvementService) List(ctx context.Context, status string) ([]*models.Improvement, error) {
	if status != "" && !improvementWorkflow.known(status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + status}
	}
	return s.improvements.List(ctx, status)
}

func (s *improvementService) UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Improvement, error) {
	if !improvementWorkflow.known(su.Status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + su.Status}
	}

	imp, err := s.improvements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, ErrNotFound
	}
	if !improvementWorkflow.allows(imp.Status, su.Status) {
		return nil, ErrInvalidTransition
	}

	if su.Status == models.ImprovementStatusApproved {
		if err := approve(&imp.Approval, su.Actor, s.now()); err != nil {
			return nil, err
		}
	}
	imp.Status = su.Status

	if err := s.improvements.Update(ctx, imp); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *improvementService) changed(ctx context.Context, id uuid.UUID) (*models.Improvement, error) {
	imp, err := s.improvements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, ErrNotFound
	}
	s.events.Publish(events.Event{Type: events.ImprovementSet, Entity: "improvement", ID: id.String(), Data: map[string]string{"status": imp.Status}})
	return imp, nil
}

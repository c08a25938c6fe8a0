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

var questWorkflow = workflow{
	models.QuestStatusProposed:  {models.QuestStatusApproved, models.QuestStatusRejected},
	models.QuestStatusApproved:  {models.QuestStatusActive},
	models.QuestStatusRejected:  {},
	models.QuestStatusActive:    {models.QuestStatusCompleted},
	models.QuestStatusCompleted: {},
}

type QuestService interface {
	Create(ctx context.Context, qc *transfer.QuestCreation) (*models.Quest, error)
	List(ctx context.Context, status string) ([]*models.Quest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Quest, error)
}

type questService struct {
	quests repository.QuestRepository
	events events.Publisher
	now    func() time.Time
}

func NewQuestService(quests repository.QuestRepository, ev events.Publisher) QuestService {
	return &questService{quests: quests, events: ev, now: time.Now}
}

func (s *questService) Create(ctx context.Context, qc *transfer.QuestCreation) (*models.Quest, error) {
	quest := &models.Quest{
		AgentID:     qc.AgentID,
		Title:       strings.TrimSpace(qc.Title),
		Description: qc.Description,
		Reward:      qc.Reward,
		Status:      models.QuestStatusProposed,
	}
	id, err := s.quests.Create(ctx, quest)
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *questService) List(ctx context.Context, status string) ([]*models.Quest, error) {
	if status != "" && !questWorkflow.known(status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + status}
	}
	return s.quests.List(ctx, status)
}

func (s *questService) UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Quest, error) {
	if !questWorkflow.known(su.Status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + su.Status}
	}

	quest, err := s.quests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrNotFound
	}
	if !questWorkflow.allows(quest.Status, su.Status) {
		return nil, ErrInvalidTransition
	}

	if su.Status == models.QuestStatusApproved {
		if err := approve(&quest.Approval, su.Actor, s.now()); err != nil {
			return nil, err
		}
	}
	quest.Status = su.Status

	if err := s.quests.UpdateStatus(ctx, quest); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *questService) changed(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	quest, err := s.quests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, ErrNotFound
	}
	s.events.Publish(events.Event{Type: events.QuestUpdated, Entity: "quest", ID: id.String(), Data: map[string]string{"status": quest.Status}})
	return quest, nil
}

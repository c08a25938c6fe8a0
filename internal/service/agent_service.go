package service

import (
	"context"
	"strings"
	"time"

	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

type AgentService interface {
	Heartbeat(ctx context.Context, hb *transfer.AgentHeartbeat) (*models.Agent, error)
	List(ctx context.Context) ([]*models.Agent, error)
	Get(ctx context.Context, id string) (*models.Agent, error)
}

type agentService struct {
	agents repository.AgentRepository
	events events.Publisher
	now    func() time.Time
}

func NewAgentService(agents repository.AgentRepository, ev events.Publisher) AgentService {
	return &agentService{agents: agents, events: ev, now: time.Now}
}

func (s *agentService) Heartbeat(ctx context.Context, hb *transfer.AgentHeartbeat) (*models.Agent, error) {
	agent := &models.Agent{
		ID:            strings.TrimSpace(hb.ID),
		Name:          strings.TrimSpace(hb.Name),
		Role:          strings.TrimSpace(hb.Role),
		Status:        hb.Status,
		CurrentTask:   hb.CurrentTask,
		Model:         hb.Model,
		LastHeartbeat: s.now().UTC(),
	}
	if err := s.agents.Upsert(ctx, agent); err != nil {
		return nil, err
	}

	stored, err := s.Get(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(events.Event{Type: events.AgentHeartbeat, Entity: "agent", ID: stored.ID, Data: stored})
	return stored, nil
}

func (s *agentService) List(ctx context.Context) ([]*models.Agent, error) {
	return s.agents.List(ctx)
}

func (s *agentService) Get(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ErrNotFound
	}
	return agent, nil
}

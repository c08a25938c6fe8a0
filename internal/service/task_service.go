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

var taskWorkflow = workflow{
	models.TaskStatusTodo:          {models.TaskStatusNeedsApproval, models.TaskStatusInProgress, models.TaskStatusBlocked, models.TaskStatusDone},
	models.TaskStatusNeedsApproval: {models.TaskStatusApproved, models.TaskStatusRejected},
	models.TaskStatusApproved:      {models.TaskStatusInProgress, models.TaskStatusDone},
	models.TaskStatusRejected:      {models.TaskStatusTodo},
	models.TaskStatusInProgress:    {models.TaskStatusBlocked, models.TaskStatusNeedsApproval, models.TaskStatusDone},
	models.TaskStatusBlocked:       {models.TaskStatusInProgress, models.TaskStatusTodo},
	models.TaskStatusDone:          {},
}

type TaskService interface {
	Create(ctx context.Context, tc *transfer.TaskCreation) (*models.Task, error)
	List(ctx context.Context, status string) ([]*models.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Task, error)
}

type taskService struct {
	tasks  repository.TaskRepository
	events events.Publisher
	now    func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, ev events.Publisher) TaskService {
	return &taskService{tasks: tasks, events: ev, now: time.Now}
}

func (s *taskService) Create(ctx context.Context, tc *transfer.TaskCreation) (*models.Task, error) {
	task := &models.Task{
		Title:       strings.TrimSpace(tc.Title),
		Description: tc.Description,
		Owner:       tc.Owner,
		Priority:    tc.Priority,
		Status:      models.TaskStatusTodo,
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}

	id, err := s.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *taskService) List(ctx context.Context, status string) ([]*models.Task, error) {
	if status != "" && !taskWorkflow.known(status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + status}
	}
	return s.tasks.List(ctx, status)
}

func (s *taskService) UpdateStatus(ctx context.Context, id uuid.UUID, su *transfer.StatusUpdate) (*models.Task, error) {
	if !taskWorkflow.known(su.Status) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + su.Status}
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	if !taskWorkflow.allows(task.Status, su.Status) {
		return nil, ErrInvalidTransition
	}

	if su.Status == models.TaskStatusApproved {
		if err := approve(&task.Approval, su.Actor, s.now()); err != nil {
			return nil, err
		}
	}
	task.Status = su.Status

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *taskService) changed(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	s.events.Publish(events.Event{Type: events.TaskUpdated, Entity: "task", ID: id.String(), Data: map[string]string{"status": task.Status}})
	return task, nil
}

func approve(a *models.Approval, actor string, now time.Time) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return &transfer.ValidationError{Field: "actor", Message: "actor is required for approval"}
	}
	a.ApprovedBy = &actor
	a.ApprovedAt = timePtr(now.UTC())
	return nil
}

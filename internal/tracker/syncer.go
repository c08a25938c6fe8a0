package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
)

type Report struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

func (r *Report) fail(ref string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", ref, err))
}

// Syncer writes parsed records without overriding decisions made in the
// dashboard: once a human has moved an item on, the markdown no longer
// touches it.
type Syncer struct {
	tasks        repository.TaskRepository
	improvements repository.ImprovementRepository
}

func NewSyncer(tasks repository.TaskRepository, improvements repository.ImprovementRepository) *Syncer {
	return &Syncer{tasks: tasks, improvements: improvements}
}

func taskEditable(status string) bool {
	return status == models.TaskStatusTodo || status == models.TaskStatusNeedsApproval
}

func (s *Syncer) SyncTasks(ctx context.Context, records []TaskRecord) *Report {
	report := &Report{Errors: []string{}}

	for _, rec := range records {
		existing, err := s.tasks.GetBySourceRef(ctx, rec.Ref)
		if err != nil {
			report.fail(rec.Ref, err)
			continue
		}

		if existing == nil {
			ref := rec.Ref
			task := &models.Task{
				SourceRef: &ref,
				Title:     rec.Title,
				Owner:     optional(rec.Owner),
				Priority:  rec.Priority,
				Status:    rec.Status,
			}
			if _, err := s.tasks.Create(ctx, task); err != nil {
				report.fail(rec.Ref, err)
				continue
			}
			report.Created++
			continue
		}

		if !taskEditable(existing.Status) {
			slog.Info("tracker row skipped, status moved on", "ref", rec.Ref, "status", existing.Status)
			report.Skipped++
			continue
		}
		if existing.Title == rec.Title && existing.Status == rec.Status &&
			existing.Priority == rec.Priority && deref(existing.Owner) == rec.Owner {
			report.Skipped++
			continue
		}

		existing.Title = rec.Title
		existing.Owner = optional(rec.Owner)
		existing.Priority = rec.Priority
		existing.Status = rec.Status
		if err := s.tasks.Update(ctx, existing); err != nil {
			report.fail(rec.Ref, err)
			continue
		}
		report.Updated++
	}
	return report
}

func (s *Syncer) SyncImprovements(ctx context.Context, records []ProposalRecord) *Report {
	report := &Report{Errors: []string{}}

	for _, rec := range records {
		existing, err := s.improvements.GetBySourceRef(ctx, rec.Ref)
		if err != nil {
			report.fail(rec.Ref, err)
			continue
		}

		if existing == nil {
			imp := &models.Improvement{
				SourceRef:   rec.Ref,
				Title:       rec.Title,
				Description: rec.Description,
				Category:    rec.Category,
				Impact:      rec.Impact,
				AgentID:     optional(rec.Agent),
				Status:      models.ImprovementStatusProposed,
			}
			if _, err := s.improvements.Create(ctx, imp); err != nil {
				report.fail(rec.Ref, err)
				continue
			}
			report.Created++
			continue
		}

		if existing.Status != models.ImprovementStatusProposed {
			slog.Info("proposal skipped, status moved on", "ref", rec.Ref, "status", existing.Status)
			report.Skipped++
			continue
		}
		if existing.Title == rec.Title && existing.Description == rec.Description &&
			existing.Category == rec.Category && existing.Impact == rec.Impact && deref(existing.AgentID) == rec.Agent {
			report.Skipped++
			continue
		}

		existing.Title = rec.Title
		existing.Description = rec.Description
		existing.Category = rec.Category
		existing.Impact = rec.Impact
		existing.AgentID = optional(rec.Agent)
		if err := s.improvements.Update(ctx, existing); err != nil {
			report.fail(rec.Ref, err)
			continue
		}
		report.Updated++
	}
	return report
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

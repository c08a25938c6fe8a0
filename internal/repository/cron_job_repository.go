package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/maheshrc27/mission-control/internal/models"
)

type CronJobRepository interface {
	Upsert(ctx context.Context, job *models.CronJob) error
	GetByJobID(ctx context.Context, jobID string) (*models.CronJob, error)
	List(ctx context.Context, agentID string) ([]*models.CronJob, error)
	SetEnabled(ctx context.Context, jobID string, enabled bool) error
}

type cronJobRepository struct {
	db *sql.DB
}

func NewCronJobRepository(db *sql.DB) CronJobRepository {
	return &cronJobRepository{db: db}
}

const cronJobColumns = `job_id, agent_id, name, enabled, schedule, payload_kind, session_target,
	last_run_at, next_run_at, synced_at`

func scanCronJob(row rowScanner) (*models.CronJob, error) {
	var job models.CronJob
	var schedule []byte
	err := row.Scan(&job.JobID, &job.AgentID, &job.Name, &job.Enabled, &schedule, &job.PayloadKind,
		&job.SessionTarget, &job.LastRunAt, &job.NextRunAt, &job.SyncedAt)
	if err != nil {
		return nil, err
	}
	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &job.Schedule); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

// Upsert writes the job keyed on job_id; the incoming definition wins.
func (r *cronJobRepository) Upsert(ctx context.Context, job *models.CronJob) error {
	schedule, err := json.Marshal(job.Schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cron_jobs (job_id, agent_id, name, enabled, schedule, payload_kind, session_target,
			last_run_at, next_run_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			schedule = EXCLUDED.schedule,
			payload_kind = EXCLUDED.payload_kind,
			session_target = EXCLUDED.session_target,
			last_run_at = EXCLUDED.last_run_at,
			next_run_at = EXCLUDED.next_run_at,
			synced_at = NOW()
	`
	_, err = r.db.ExecContext(ctx, query, job.JobID, job.AgentID, job.Name, job.Enabled, schedule,
		job.PayloadKind, job.SessionTarget, job.LastRunAt, job.NextRunAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *cronJobRepository) GetByJobID(ctx context.Context, jobID string) (*models.CronJob, error) {
	query := `SELECT ` + cronJobColumns + ` FROM cron_jobs WHERE job_id = $1`

	job, err := scanCronJob(r.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return job, nil
}

func (r *cronJobRepository) List(ctx context.Context, agentID string) ([]*models.CronJob, error) {
	query := `SELECT ` + cronJobColumns + ` FROM cron_jobs`
	args := []interface{}{}

	if agentID != "" {
		query += ` WHERE agent_id = $1`
		args = append(args, agentID)
	}
	query += ` ORDER BY next_run_at ASC NULLS LAST, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.CronJob
	for rows.Next() {
		job, err := scanCronJob(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *cronJobRepository) SetEnabled(ctx context.Context, jobID string, enabled bool) error {
	query := `UPDATE cron_jobs SET enabled = $2 WHERE job_id = $1`
	result, err := r.db.ExecContext(ctx, query, jobID, enabled)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, t *models.Task) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetBySourceRef(ctx context.Context, ref string) (*models.Task, error)
	List(ctx context.Context, status string) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, source_ref, title, description, owner, priority, status, approved_by, approved_at, created_at, updated_at`

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.SourceRef, &t.Title, &t.Description, &t.Owner, &t.Priority, &t.Status,
		&t.ApprovedBy, &t.ApprovedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) Create(ctx context.Context, t *models.Task) (uuid.UUID, error) {
	query := `
		INSERT INTO tasks (id, source_ref, title, description, owner, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, t.ID, t.SourceRef, t.Title, t.Description, t.Owner, t.Priority, t.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (r *taskRepository) GetBySourceRef(ctx context.Context, ref string) (*models.Task, error) {
	return r.getOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE source_ref = $1`, ref)
}

func (r *taskRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) List(ctx context.Context, status string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, t *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2,
			description = $3,
			owner = $4,
			priority = $5,
			status = $6,
			approved_by = $7,
			approved_at = $8,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, t.ID, t.Title, t.Description, t.Owner, t.Priority, t.Status, t.ApprovedBy, t.ApprovedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

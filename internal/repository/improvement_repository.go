package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/models"
)

type ImprovementRepository interface {
	Create(ctx context.Context, i *models.Improvement) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Improvement, error)
	GetBySourceRef(ctx context.Context, ref string) (*models.Improvement, error)
	List(ctx context.Context, status string) ([]*models.Improvement, error)
	Update(ctx context.Context, i *models.Improvement) error
}

type improvementRepository struct {
	db *sql.DB
}

func NewImprovementRepository(db *sql.DB) ImprovementRepository {
	return &improvementRepository{db: db}
}

const improvementColumns = `id, source_ref, title, description, category, impact, agent_id, status,
	approved_by, approved_at, created_at, updated_at`

func scanImprovement(row rowScanner) (*models.Improvement, error) {
	var i models.Improvement
	err := row.Scan(&i.ID, &i.SourceRef, &i.Title, &i.Description, &i.Category, &i.Impact, &i.AgentID, &i.Status,
		&i.ApprovedBy, &i.ApprovedAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *improvementRepository) Create(ctx context.Context, i *models.Improvement) (uuid.UUID, error) {
	query := `
		INSERT INTO improvements (id, source_ref, title, description, category, impact, agent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, i.ID, i.SourceRef, i.Title, i.Description, i.Category, i.Impact, i.AgentID, i.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

func (r *improvementRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Improvement, error) {
	return r.getOne(ctx, `SELECT `+improvementColumns+` FROM improvements WHERE id = $1`, id)
}

func (r *improvementRepository) GetBySourceRef(ctx context.Context, ref string) (*models.Improvement, error) {
	return r.getOne(ctx, `SELECT `+improvementColumns+` FROM improvements WHERE source_ref = $1`, ref)
}

func (r *improvementRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Improvement, error) {
	i, err := scanImprovement(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return i, nil
}

func (r *improvementRepository) List(ctx context.Context, status string) ([]*models.Improvement, error) {
	query := `SELECT ` + improvementColumns + ` FROM improvements`
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

	var items []*models.Improvement
	for rows.Next() {
		i, err := scanImprovement(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *improvementRepository) Update(ctx context.Context, i *models.Improvement) error {
	query := `
		UPDATE improvements
		SET title = $2,
			description = $3,
			category = $4,
			impact = $5,
			agent_id = $6,
			status = $7,
			approved_by = $8,
			approved_at = $9,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, i.ID, i.Title, i.Description, i.Category, i.Impact, i.AgentID, i.Status, i.ApprovedBy, i.ApprovedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/models"
)

type QuestRepository interface {
	Create(ctx context.Context, q *models.Quest) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	List(ctx context.Context, status string) ([]*models.Quest, error)
	UpdateStatus(ctx context.Context, q *models.Quest) error
}

type questRepository struct {
	db *sql.DB
}

func NewQuestRepository(db *sql.DB) QuestRepository {
	return &questRepository{db: db}
}

const questColumns = `id, agent_id, title, description, reward, status, approved_by, approved_at, created_at, updated_at`

func scanQuest(row rowScanner) (*models.Quest, error) {
	var q models.Quest
	err := row.Scan(&q.ID, &q.AgentID, &q.Title, &q.Description, &q.Reward, &q.Status,
		&q.ApprovedBy, &q.ApprovedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *questRepository) Create(ctx context.Context, q *models.Quest) (uuid.UUID, error) {
	query := `
		INSERT INTO quests (id, agent_id, title, description, reward, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, q.ID, q.AgentID, q.Title, q.Description, q.Reward, q.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}
	return id, nil
}

func (r *questRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	q, err := scanQuest(r.db.QueryRowContext(ctx, `SELECT `+questColumns+` FROM quests WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return q, nil
}

func (r *questRepository) List(ctx context.Context, status string) ([]*models.Quest, error) {
	query := `SELECT ` + questColumns + ` FROM quests`
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

	var quests []*models.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		quests = append(quests, q)
	}
	return quests, rows.Err()
}

func (r *questRepository) UpdateStatus(ctx context.Context, q *models.Quest) error {
	query := `
		UPDATE quests
		SET status = $2,
			approved_by = $3,
			approved_at = $4,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, q.ID, q.Status, q.ApprovedBy, q.ApprovedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

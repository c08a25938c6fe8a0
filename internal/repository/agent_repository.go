package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/mission-control/internal/models"
)

type AgentRepository interface {
	Upsert(ctx context.Context, a *models.Agent) error
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	List(ctx context.Context) ([]*models.Agent, error)
}

type agentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Upsert(ctx context.Context, a *models.Agent) error {
	query := `
		INSERT INTO agents (id, name, role, status, current_task, model, last_heartbeat, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), agents.name),
			role = COALESCE(NULLIF(EXCLUDED.role, ''), agents.role),
			status = EXCLUDED.status,
			current_task = EXCLUDED.current_task,
			model = COALESCE(EXCLUDED.model, agents.model),
			last_heartbeat = EXCLUDED.last_heartbeat,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Role, a.Status, a.CurrentTask, a.Model, a.LastHeartbeat)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	query := `SELECT id, name, role, status, current_task, model, last_heartbeat, updated_at FROM agents WHERE id = $1`

	var a models.Agent
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Role, &a.Status, &a.CurrentTask, &a.Model, &a.LastHeartbeat, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

func (r *agentRepository) List(ctx context.Context) ([]*models.Agent, error) {
	query := `SELECT id, name, role, status, current_task, model, last_heartbeat, updated_at FROM agents ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		var a models.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Role, &a.Status, &a.CurrentTask, &a.Model, &a.LastHeartbeat, &a.UpdatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/models"
)

type UsageRepository interface {
	CreateBatch(ctx context.Context, records []*models.UsageRecord) error
	Summary(ctx context.Context, since time.Time) ([]*models.UsageSummary, error)
}

type usageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) CreateBatch(ctx context.Context, records []*models.UsageRecord) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_records (id, agent_id, session_key, model, input_tokens, output_tokens, cost_usd, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		_, err := stmt.ExecContext(ctx, rec.ID, rec.AgentID, rec.SessionKey, rec.Model,
			rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.RecordedAt)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	return tx.Commit()
}

func (r *usageRepository) Summary(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
	query := `
		SELECT agent_id, model, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM usage_records
		WHERE recorded_at >= $1
		GROUP BY agent_id, model
		ORDER BY SUM(cost_usd) DESC
	`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []*models.UsageSummary
	for rows.Next() {
		var s models.UsageSummary
		if err := rows.Scan(&s.AgentID, &s.Model, &s.Requests, &s.InputTokens, &s.OutputTokens, &s.CostUSD); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

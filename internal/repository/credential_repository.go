package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/mission-control/internal/models"
)

// CredentialRepository stores the single LinkedIn grant. Rows are never
// updated in place: a new grant replaces every existing row.
type CredentialRepository interface {
	GetCurrent(ctx context.Context) (*models.LinkedInCredential, error)
	Replace(ctx context.Context, c *models.LinkedInCredential) (int64, error)
	DeleteAll(ctx context.Context) error
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetCurrent(ctx context.Context) (*models.LinkedInCredential, error) {
	query := `
		SELECT id, person_urn, access_token, refresh_token, expires_at, created_at
		FROM linkedin_tokens
		ORDER BY created_at DESC
		LIMIT 1
	`

	var c models.LinkedInCredential
	err := r.db.QueryRowContext(ctx, query).Scan(&c.ID, &c.PersonURN, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &c, nil
}

func (r *credentialRepository) Replace(ctx context.Context, c *models.LinkedInCredential) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `DELETE FROM linkedin_tokens`); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	insertQuery := `
		INSERT INTO linkedin_tokens (person_urn, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(ctx, insertQuery, c.PersonURN, c.AccessToken, c.RefreshToken, c.ExpiresAt).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return c.ID, nil
}

func (r *credentialRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM linkedin_tokens`)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

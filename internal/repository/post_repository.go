package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/maheshrc27/mission-control/internal/models"
)

type LinkedInPostRepository interface {
	Create(ctx context.Context, post *models.LinkedInPost) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error)
	List(ctx context.Context, status models.PostStatus) ([]*models.LinkedInPost, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.LinkedInPost, error)
	UpdateContent(ctx context.Context, post *models.LinkedInPost) error
	UpdateWorkflow(ctx context.Context, post *models.LinkedInPost) error
	MarkPosted(ctx context.Context, id uuid.UUID, postedAt time.Time, linkedInPostID string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	AppendMedia(ctx context.Context, id uuid.UUID, mediaURL string) error
	Remove(ctx context.Context, id uuid.UUID) error
}

var ErrNoRowsAffected = errors.New("no rows affected")

const postColumns = `id, title, content, status, scheduled_at, posted_at, linkedin_post_id,
	author_id, approved_by, approved_at, error, feedback, media_urls, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type linkedInPostRepository struct {
	db *sql.DB
}

func NewLinkedInPostRepository(db *sql.DB) LinkedInPostRepository {
	return &linkedInPostRepository{db: db}
}

func scanPost(row rowScanner) (*models.LinkedInPost, error) {
	var p models.LinkedInPost
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Status, &p.ScheduledAt, &p.PostedAt, &p.LinkedInPostID,
		&p.AuthorID, &p.ApprovedBy, &p.ApprovedAt, &p.Error, &p.Feedback, pq.Array(&p.MediaURLs), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *linkedInPostRepository) Create(ctx context.Context, post *models.LinkedInPost) (uuid.UUID, error) {
	query := `
		INSERT INTO linkedin_posts (id, title, content, status, author_id, media_urls)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, post.ID, post.Title, post.Content, post.Status, post.AuthorID, pq.Array(post.MediaURLs)).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	return id, nil
}

func (r *linkedInPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error) {
	query := `SELECT ` + postColumns + ` FROM linkedin_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *linkedInPostRepository) List(ctx context.Context, status models.PostStatus) ([]*models.LinkedInPost, error) {
	query := `SELECT ` + postColumns + ` FROM linkedin_posts`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY COALESCE(scheduled_at, created_at) DESC`

	return r.query(ctx, query, args...)
}

func (r *linkedInPostRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.LinkedInPost, error) {
	query := `SELECT ` + postColumns + ` FROM linkedin_posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3`

	return r.query(ctx, query, models.PostStatusScheduled, now, limit)
}

func (r *linkedInPostRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.LinkedInPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.LinkedInPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *linkedInPostRepository) UpdateContent(ctx context.Context, post *models.LinkedInPost) error {
	query := `
		UPDATE linkedin_posts
		SET title = $2,
			content = $3,
			media_urls = $4,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, post.ID, post.Title, post.Content, pq.Array(post.MediaURLs))
}

func (r *linkedInPostRepository) UpdateWorkflow(ctx context.Context, post *models.LinkedInPost) error {
	query := `
		UPDATE linkedin_posts
		SET status = $2,
			scheduled_at = $3,
			approved_by = $4,
			approved_at = $5,
			feedback = $6,
			error = $7,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, post.ID, post.Status, post.ScheduledAt, post.ApprovedBy, post.ApprovedAt, post.Feedback, post.Error)
}

func (r *linkedInPostRepository) MarkPosted(ctx context.Context, id uuid.UUID, postedAt time.Time, linkedInPostID string) error {
	query := `
		UPDATE linkedin_posts
		SET status = $2,
			posted_at = $3,
			linkedin_post_id = $4,
			error = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, models.PostStatusPosted, postedAt, linkedInPostID)
}

func (r *linkedInPostRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE linkedin_posts
		SET status = $2,
			error = $3,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, models.PostStatusFailed, errMsg)
}

func (r *linkedInPostRepository) AppendMedia(ctx context.Context, id uuid.UUID, mediaURL string) error {
	query := `
		UPDATE linkedin_posts
		SET media_urls = array_append(COALESCE(media_urls, '{}'), $2),
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, query, id, mediaURL)
}

func (r *linkedInPostRepository) Remove(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM linkedin_posts WHERE id = $1`, id)
}

func (r *linkedInPostRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostStatusDraft             PostStatus = "draft"
	PostStatusFeedbackRequested PostStatus = "feedback_requested"
	PostStatusApproved          PostStatus = "approved"
	PostStatusScheduled         PostStatus = "scheduled"
	PostStatusPosted            PostStatus = "posted"
	PostStatusFailed            PostStatus = "failed"
)

type LinkedInPost struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Title          *string    `db:"title" json:"title"`
	Content        string     `db:"content" json:"content"`
	Status         PostStatus `db:"status" json:"status"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at"`
	LinkedInPostID *string    `db:"linkedin_post_id" json:"linkedin_post_id"`
	AuthorID       string     `db:"author_id" json:"author_id"`
	ApprovedBy     *string    `db:"approved_by" json:"approved_by"`
	ApprovedAt     *time.Time `db:"approved_at" json:"approved_at"`
	Error          *string    `db:"error" json:"error"`
	Feedback       *string    `db:"feedback" json:"feedback"`
	MediaURLs      []string   `db:"media_urls" json:"media_urls"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// FirstMediaURL returns the attachment used for the article card, if any.
func (p *LinkedInPost) FirstMediaURL() string {
	for _, u := range p.MediaURLs {
		if u != "" {
			return u
		}
	}
	return ""
}

type PublishAttempt struct {
	ID             int64      `db:"id" json:"id"`
	PostID         uuid.UUID  `db:"post_id" json:"post_id"`
	Outcome        PostStatus `db:"outcome" json:"outcome"` // posted, failed
	ErrorMessage   *string    `db:"error_message" json:"error_message"`
	LinkedInPostID *string    `db:"linkedin_post_id" json:"linkedin_post_id"`
	AttemptedAt    time.Time  `db:"attempted_at" json:"attempted_at"`
}

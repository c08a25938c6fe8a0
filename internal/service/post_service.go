package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxMediaBytes = 10 << 20

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {},
}

type PostService interface {
	List(ctx context.Context, status string) ([]*models.LinkedInPost, error)
	Get(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error)
	Attempts(ctx context.Context, id uuid.UUID) ([]*models.PublishAttempt, error)
	CreateDraft(ctx context.Context, pc *transfer.PostCreation) (*models.LinkedInPost, error)
	Update(ctx context.Context, id uuid.UUID, pu *transfer.PostUpdate) (*models.LinkedInPost, error)
	Transition(ctx context.Context, id uuid.UUID, pt *transfer.PostTransition) (*models.LinkedInPost, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AttachMedia(ctx context.Context, id uuid.UUID, file *multipart.FileHeader) (*models.LinkedInPost, error)
}

// MediaStore puts an object somewhere public and returns its URL.
type MediaStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type postService struct {
	posts    repository.LinkedInPostRepository
	attempts repository.PublishAttemptRepository
	media    MediaStore
	events   events.Publisher
	now      func() time.Time
}

func NewPostService(
	posts repository.LinkedInPostRepository,
	attempts repository.PublishAttemptRepository,
	media MediaStore,
	ev events.Publisher) PostService {
	return &postService{
		posts:    posts,
		attempts: attempts,
		media:    media,
		events:   ev,
		now:      time.Now,
	}
}

func (s *postService) List(ctx context.Context, status string) ([]*models.LinkedInPost, error) {
	st := models.PostStatus(status)
	if status != "" && !validPostStatus(st) {
		return nil, &transfer.ValidationError{Field: "status", Message: "unknown status " + status}
	}
	return s.posts.List(ctx, st)
}

func (s *postService) Get(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) Attempts(ctx context.Context, id uuid.UUID) ([]*models.PublishAttempt, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.attempts.ListByPostID(ctx, id)
}

func (s *postService) CreateDraft(ctx context.Context, pc *transfer.PostCreation) (*models.LinkedInPost, error) {
	post := &models.LinkedInPost{
		Title:     pc.Title,
		Content:   pc.Content,
		Status:    models.PostStatusDraft,
		AuthorID:  strings.TrimSpace(pc.AuthorID),
		MediaURLs: pc.MediaURLs,
	}
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *postService) Update(ctx context.Context, id uuid.UUID, pu *transfer.PostUpdate) (*models.LinkedInPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPosted {
		return nil, ErrInvalidTransition
	}

	if pu.Title != nil {
		post.Title = pu.Title
	}
	if pu.Content != nil {
		post.Content = *pu.Content
	}
	if pu.MediaURLs != nil {
		post.MediaURLs = *pu.MediaURLs
	}

	if err := s.posts.UpdateContent(ctx, post); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

func (s *postService) Transition(ctx context.Context, id uuid.UUID, pt *transfer.PostTransition) (*models.LinkedInPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := nextPostStatus(post.Status, pt.Action)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	switch pt.Action {
	case transfer.PostActionRequestFeedback:
		post.Feedback = strPtr(pt.Feedback)
		post.ScheduledAt = nil
	case transfer.PostActionApprove:
		post.ApprovedBy = strPtr(strings.TrimSpace(pt.Actor))
		post.ApprovedAt = timePtr(now)
	case transfer.PostActionSchedule:
		if !pt.ScheduledAt.After(now) {
			return nil, &transfer.ValidationError{Field: "scheduled_at", Message: "scheduled_at must be in the future"}
		}
		post.ScheduledAt = timePtr(pt.ScheduledAt.UTC())
	case transfer.PostActionUnschedule:
		post.ScheduledAt = nil
	case transfer.PostActionRevise:
		post.ScheduledAt = nil
	}
	post.Status = next
	post.Error = nil

	if err := s.posts.UpdateWorkflow(ctx, post); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// nextPostStatus returns where action takes a post in status from. A posted
// post never moves again.
func nextPostStatus(from models.PostStatus, action transfer.PostAction) (models.PostStatus, error) {
	if from == models.PostStatusPosted {
		return "", ErrInvalidTransition
	}

	var allowed []models.PostStatus
	var to models.PostStatus
	switch action {
	case transfer.PostActionRequestFeedback:
		allowed = []models.PostStatus{models.PostStatusDraft, models.PostStatusApproved, models.PostStatusScheduled, models.PostStatusFailed}
		to = models.PostStatusFeedbackRequested
	case transfer.PostActionApprove:
		allowed = []models.PostStatus{models.PostStatusDraft, models.PostStatusFeedbackRequested, models.PostStatusFailed}
		to = models.PostStatusApproved
	case transfer.PostActionSchedule:
		allowed = []models.PostStatus{models.PostStatusDraft, models.PostStatusFeedbackRequested, models.PostStatusApproved, models.PostStatusScheduled, models.PostStatusFailed}
		to = models.PostStatusScheduled
	case transfer.PostActionUnschedule:
		allowed = []models.PostStatus{models.PostStatusScheduled}
		to = models.PostStatusApproved
	case transfer.PostActionRevise:
		allowed = []models.PostStatus{models.PostStatusFeedbackRequested, models.PostStatusFailed}
		to = models.PostStatusDraft
	default:
		return "", ErrInvalidTransition
	}

	for _, st := range allowed {
		if st == from {
			return to, nil
		}
	}
	return "", ErrInvalidTransition
}

func (s *postService) Delete(ctx context.Context, id uuid.UUID) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == models.PostStatusPosted {
		return ErrInvalidTransition
	}
	if err := s.posts.Remove(ctx, id); err != nil {
		return err
	}
	s.events.Publish(events.Event{Type: events.PostUpdated, Entity: "linkedin_post", ID: id.String(), Data: map[string]bool{"deleted": true}})
	return nil
}

func (s *postService) AttachMedia(ctx context.Context, id uuid.UUID, file *multipart.FileHeader) (*models.LinkedInPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusPosted {
		return nil, ErrInvalidTransition
	}
	if file.Size > maxMediaBytes {
		return nil, &transfer.ValidationError{Field: "file", Message: "file is larger than 10 MiB"}
	}

	fileContent, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(fileContent, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	if len(fileBytes) > maxMediaBytes {
		return nil, &transfer.ValidationError{Field: "file", Message: "file is larger than 10 MiB"}
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return nil, &transfer.ValidationError{Field: "file", Message: "unsupported file type"}
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return nil, &transfer.ValidationError{Field: "file", Message: fmt.Sprintf("file type %s is not allowed", fileType.Extension)}
	}

	name, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("linkedin/%s/%s.%s", id, name, fileType.Extension)

	mediaURL, err := s.media.Upload(ctx, key, fileBytes, fileType.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	if err := s.posts.AppendMedia(ctx, id, mediaURL); err != nil {
		return nil, err
	}
	return s.changed(ctx, id)
}

// changed reloads the post and announces it.
func (s *postService) changed(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.events.Publish(events.Event{
		Type:   events.PostUpdated,
		Entity: "linkedin_post",
		ID:     id.String(),
		Data:   map[string]models.PostStatus{"status": post.Status},
	})
	return post, nil
}

func validPostStatus(st models.PostStatus) bool {
	switch st {
	case models.PostStatusDraft, models.PostStatusFeedbackRequested, models.PostStatusApproved,
		models.PostStatusScheduled, models.PostStatusPosted, models.PostStatusFailed:
		return true
	}
	return false
}

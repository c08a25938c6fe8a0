package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	config "github.com/maheshrc27/mission-control/configs"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
	"github.com/maheshrc27/mission-control/internal/transfer"
	"github.com/maheshrc27/mission-control/pkg/utils"
)

const (
	MsgNotConnected     = "LinkedIn not connected: no auth token stored"
	MsgMissingPostID    = "LinkedIn accepted the post but returned no post id; check the profile before retrying"
	MsgTokenExpired     = "LinkedIn token expired, please reconnect"
	MsgTokenUnreadable  = "LinkedIn token could not be decrypted, please reconnect"
	maxStoredErrorChars = 500
)

type PublisherService interface {
	PublishDuePosts(ctx context.Context) (int, error)
	PublishPost(ctx context.Context, post *models.LinkedInPost) error
	PublishNow(ctx context.Context, postID uuid.UUID) (*models.LinkedInPost, error)
}

type publisherService struct {
	cfg      config.Config
	posts    repository.LinkedInPostRepository
	attempts repository.PublishAttemptRepository
	creds    repository.CredentialRepository
	events   events.Publisher
	client   *http.Client
	now      func() time.Time

	// held for the length of a due-posts run
	running sync.Mutex
}

func NewPublisherService(
	cfg config.Config,
	posts repository.LinkedInPostRepository,
	attempts repository.PublishAttemptRepository,
	creds repository.CredentialRepository,
	ev events.Publisher,
	client *http.Client) PublisherService {
	if client == nil {
		client = http.DefaultClient
	}
	return &publisherService{
		cfg:      cfg,
		posts:    posts,
		attempts: attempts,
		creds:    creds,
		events:   ev,
		client:   client,
		now:      time.Now,
	}
}

func (s *publisherService) PublishDuePosts(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		return 0, ErrPublishInProgress
	}
	defer s.running.Unlock()

	limit := s.cfg.LinkedIn.PublishBatch
	if limit <= 0 {
		limit = 10
	}

	due, err := s.posts.ListDue(ctx, s.now(), limit)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	published := 0
	for _, post := range due {
		if err := s.PublishPost(ctx, post); err != nil {
			slog.Info("linkedin publish failed", "post_id", post.ID, "error", err)
			continue
		}
		published++
	}

	if len(due) > 0 {
		slog.Info("linkedin publish run finished", "due", len(due), "published", published)
	}
	return published, nil
}

func (s *publisherService) PublishNow(ctx context.Context, postID uuid.UUID) (*models.LinkedInPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.Status != models.PostStatusApproved && post.Status != models.PostStatusScheduled {
		return nil, ErrInvalidStatus
	}

	publishErr := s.PublishPost(ctx, post)

	updated, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return updated, publishErr
}

// PublishPost sends one post to LinkedIn. Every outcome leaves the post either
// posted or failed; a *PublishFailure is returned in the latter case.
func (s *publisherService) PublishPost(ctx context.Context, post *models.LinkedInPost) error {
	cred, err := s.creds.GetCurrent(ctx)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("load linkedin credential: %w", err)
	}
	if cred == nil {
		return s.fail(ctx, post, MsgNotConnected)
	}
	if cred.Expired(s.now()) {
		return s.fail(ctx, post, MsgTokenExpired)
	}

	accessToken, err := utils.Decrypt(cred.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		slog.Info(err.Error())
		return s.fail(ctx, post, MsgTokenUnreadable)
	}

	body, err := json.Marshal(BuildUGCPost(cred.PersonURN, post))
	if err != nil {
		return s.fail(ctx, post, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.LinkedIn.APIURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return s.fail(ctx, post, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return s.fail(ctx, post, "LinkedIn request failed: "+err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = fmt.Sprintf("LinkedIn returned %d", resp.StatusCode)
		}
		return s.fail(ctx, post, msg)
	}

	linkedInID := resp.Header.Get("x-restli-id")
	if linkedInID == "" {
		var created struct {
			ID string `json:"id"`
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(respBody, &created) == nil {
			linkedInID = created.ID
		}
	}
	if linkedInID == "" {
		slog.Warn("linkedin accepted post without an id", "post", post.ID, "status", resp.StatusCode)
		return s.fail(ctx, post, MsgMissingPostID)
	}
	postedAt := s.now().UTC()
	if err := s.posts.MarkPosted(ctx, post.ID, postedAt, linkedInID); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("mark post %s posted: %w", post.ID, err)
	}

	s.recordAttempt(ctx, &models.PublishAttempt{
		PostID:         post.ID,
		Outcome:        models.PostStatusPosted,
		LinkedInPostID: strPtr(linkedInID),
		AttemptedAt:    postedAt,
	})
	s.events.Publish(events.Event{
		Type:   events.PostPosted,
		Entity: "linkedin_post",
		ID:     post.ID.String(),
		Data:   map[string]string{"linkedin_post_id": linkedInID},
	})
	return nil
}

func (s *publisherService) fail(ctx context.Context, post *models.LinkedInPost, msg string) error {
	msg = truncate(msg, maxStoredErrorChars)
	if err := s.posts.MarkFailed(ctx, post.ID, msg); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("mark post %s failed: %w", post.ID, err)
	}

	s.recordAttempt(ctx, &models.PublishAttempt{
		PostID:       post.ID,
		Outcome:      models.PostStatusFailed,
		ErrorMessage: strPtr(msg),
		AttemptedAt:  s.now().UTC(),
	})
	s.events.Publish(events.Event{
		Type:   events.PostFailed,
		Entity: "linkedin_post",
		ID:     post.ID.String(),
		Data:   map[string]string{"error": msg},
	})
	return &PublishFailure{Message: msg}
}

// The post row is authoritative; a lost attempt row only costs history.
func (s *publisherService) recordAttempt(ctx context.Context, pa *models.PublishAttempt) {
	if _, err := s.attempts.Create(ctx, pa); err != nil {
		slog.Info("recording publish attempt failed", "post_id", pa.PostID, "error", err)
	}
}

// BuildUGCPost shapes a post into LinkedIn's ugcPosts payload. Only the first
// media URL is sent, as an article card.
func BuildUGCPost(authorURN string, post *models.LinkedInPost) transfer.UGCPost {
	share := transfer.UGCShareContent{
		ShareCommentary:    transfer.UGCText{Text: post.Content},
		ShareMediaCategory: transfer.MediaCategoryNone,
	}

	if mediaURL := post.FirstMediaURL(); mediaURL != "" {
		media := transfer.UGCMedia{Status: "READY", OriginalURL: mediaURL}
		if post.Title != nil && strings.TrimSpace(*post.Title) != "" {
			media.Title = &transfer.UGCText{Text: *post.Title}
		}
		share.ShareMediaCategory = transfer.MediaCategoryArticle
		share.Media = []transfer.UGCMedia{media}
	}

	return transfer.UGCPost{
		Author:          authorURN,
		LifecycleState:  transfer.LifecycleStatePublic,
		SpecificContent: map[string]transfer.UGCShareContent{transfer.ShareContentKey: share},
		Visibility:      map[string]string{transfer.MemberVisibilityKey: transfer.VisibilityPublic},
	}
}

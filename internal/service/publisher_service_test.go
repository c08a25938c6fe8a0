package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	config "github.com/maheshrc27/mission-control/configs"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/transfer"
	"github.com/maheshrc27/mission-control/pkg/utils"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type publisherFixture struct {
	svc      *publisherService
	posts    *fakePostRepo
	attempts *fakeAttemptRepo
	creds    *fakeCredentialRepo
	events   *recordingEvents
	calls    *int32
}

func storedCredential(t *testing.T, expiresAt time.Time) *models.LinkedInCredential {
	t.Helper()
	token, err := utils.Encrypt([]byte("access-123"), []byte(testSecret))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	return &models.LinkedInCredential{ID: 1, PersonURN: "urn:li:person:abc", AccessToken: token, ExpiresAt: expiresAt}
}

func newPublisherFixture(t *testing.T, handler http.HandlerFunc, posts ...*models.LinkedInPost) *publisherFixture {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Config{SecretKey: testSecret}
	cfg.LinkedIn.APIURL = srv.URL
	cfg.LinkedIn.PublishBatch = 10

	f := &publisherFixture{
		posts:    newFakePostRepo(posts...),
		attempts: &fakeAttemptRepo{},
		creds:    &fakeCredentialRepo{},
		events:   &recordingEvents{},
		calls:    &calls,
	}
	svc := NewPublisherService(cfg, f.posts, f.attempts, f.creds, f.events, srv.Client()).(*publisherService)
	svc.now = func() time.Time { return testNow }
	f.svc = svc
	return f
}

func scheduledPost(at time.Time) *models.LinkedInPost {
	return &models.LinkedInPost{
		ID:          uuid.New(),
		Content:     "Shipping the new dashboard today.",
		Status:      models.PostStatusScheduled,
		ScheduledAt: &at,
		AuthorID:    "kai",
		MediaURLs:   []string{},
	}
}

func TestPublishDuePostsPublishesDuePost(t *testing.T) {
	post := scheduledPost(testNow.Add(-time.Minute))

	var got transfer.UGCPost
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/ugcPosts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if h := r.Header.Get("X-Restli-Protocol-Version"); h != "2.0.0" {
			t.Errorf("X-Restli-Protocol-Version = %q", h)
		}
		if h := r.Header.Get("Authorization"); h != "Bearer access-123" {
			t.Errorf("Authorization = %q", h)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("x-restli-id", "urn:li:share:42")
		w.WriteHeader(http.StatusCreated)
	}, post)
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(24*time.Hour)))

	n, err := f.svc.PublishDuePosts(context.Background())
	if err != nil {
		t.Fatalf("PublishDuePosts: %v", err)
	}
	if n != 1 {
		t.Fatalf("published = %d, want 1", n)
	}

	stored := f.posts.get(post.ID)
	if stored.Status != models.PostStatusPosted {
		t.Fatalf("status = %s, want posted", stored.Status)
	}
	if stored.PostedAt == nil || stored.PostedAt.Before(testNow) {
		t.Fatalf("posted_at = %v, want >= %v", stored.PostedAt, testNow)
	}
	if stored.LinkedInPostID == nil || *stored.LinkedInPostID != "urn:li:share:42" {
		t.Fatalf("linkedin_post_id = %v", stored.LinkedInPostID)
	}

	if got.Author != "urn:li:person:abc" || got.LifecycleState != "PUBLISHED" {
		t.Fatalf("payload author/lifecycle = %q/%q", got.Author, got.LifecycleState)
	}
	share := got.SpecificContent[transfer.ShareContentKey]
	if share.ShareCommentary.Text != post.Content || share.ShareMediaCategory != transfer.MediaCategoryNone {
		t.Fatalf("share content = %+v", share)
	}
	if got.Visibility[transfer.MemberVisibilityKey] != "PUBLIC" {
		t.Fatalf("visibility = %v", got.Visibility)
	}

	if len(f.attempts.attempts) != 1 || f.attempts.attempts[0].Outcome != models.PostStatusPosted {
		t.Fatalf("attempts = %+v", f.attempts.attempts)
	}
	if !f.events.has(events.PostPosted) {
		t.Fatalf("events = %v, want %s", f.events.types(), events.PostPosted)
	}
}

func TestPublishWithoutCredentialFails(t *testing.T) {
	post := scheduledPost(testNow.Add(-time.Minute))
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}, post)

	n, err := f.svc.PublishDuePosts(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("PublishDuePosts = %d, %v", n, err)
	}

	stored := f.posts.get(post.ID)
	if stored.Status != models.PostStatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if stored.Error == nil || *stored.Error != MsgNotConnected {
		t.Fatalf("error = %v", stored.Error)
	}
	if atomic.LoadInt32(f.calls) != 0 {
		t.Fatal("LinkedIn should not be called without a credential")
	}
	if !f.events.has(events.PostFailed) {
		t.Fatalf("events = %v", f.events.types())
	}
}

func TestPublishWithExpiredCredentialFails(t *testing.T) {
	post := scheduledPost(testNow.Add(-time.Minute))
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}, post)
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(-time.Second)))

	if _, err := f.svc.PublishDuePosts(context.Background()); err != nil {
		t.Fatalf("PublishDuePosts: %v", err)
	}

	stored := f.posts.get(post.ID)
	if stored.Status != models.PostStatusFailed || stored.Error == nil || *stored.Error != MsgTokenExpired {
		t.Fatalf("post = %s / %v", stored.Status, stored.Error)
	}
	if atomic.LoadInt32(f.calls) != 0 {
		t.Fatal("LinkedIn should not be called with an expired token")
	}
}

func TestPublishStoresTruncatedErrorBody(t *testing.T) {
	post := scheduledPost(testNow.Add(-time.Minute))
	body := strings.Repeat("x", 800)
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, body)
	}, post)
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

	err := f.svc.PublishPost(context.Background(), post)
	var failure *PublishFailure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *PublishFailure", err)
	}

	stored := f.posts.get(post.ID)
	if stored.Status != models.PostStatusFailed {
		t.Fatalf("status = %s", stored.Status)
	}
	if stored.Error == nil || len(*stored.Error) != 500 {
		t.Fatalf("stored error length = %v", stored.Error)
	}
	if a := f.attempts.attempts; len(a) != 1 || a[0].Outcome != models.PostStatusFailed {
		t.Fatalf("attempts = %+v", a)
	}
}

func TestPublishWithoutReturnedPostID(t *testing.T) {
	t.Run("id from body", func(t *testing.T) {
		post := scheduledPost(testNow.Add(-time.Minute))
		f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":"urn:li:share:77"}`)
		}, post)
		f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

		if err := f.svc.PublishPost(context.Background(), post); err != nil {
			t.Fatalf("PublishPost: %v", err)
		}
		stored := f.posts.get(post.ID)
		if stored.Status != models.PostStatusPosted || stored.LinkedInPostID == nil || *stored.LinkedInPostID != "urn:li:share:77" {
			t.Fatalf("stored = %+v", stored)
		}
	})

	t.Run("no id at all", func(t *testing.T) {
		post := scheduledPost(testNow.Add(-time.Minute))
		f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}, post)
		f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

		err := f.svc.PublishPost(context.Background(), post)
		var failure *PublishFailure
		if !errors.As(err, &failure) || failure.Message != MsgMissingPostID {
			t.Fatalf("err = %v, want missing post id failure", err)
		}
		stored := f.posts.get(post.ID)
		if stored.Status != models.PostStatusFailed || stored.LinkedInPostID != nil {
			t.Fatalf("status = %s, linkedin id = %v", stored.Status, stored.LinkedInPostID)
		}
		if !f.events.has(events.PostFailed) {
			t.Fatalf("events = %v", f.events.types())
		}
	})
}

func TestPublishDuePostsSkipsFuturePosts(t *testing.T) {
	due := scheduledPost(testNow.Add(-time.Hour))
	future := scheduledPost(testNow.Add(time.Hour))
	draft := &models.LinkedInPost{ID: uuid.New(), Content: "draft", Status: models.PostStatusDraft, AuthorID: "kai"}

	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-restli-id", "urn:li:share:1")
		w.WriteHeader(http.StatusCreated)
	}, due, future, draft)
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

	n, err := f.svc.PublishDuePosts(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("PublishDuePosts = %d, %v", n, err)
	}
	if st := f.posts.get(future.ID).Status; st != models.PostStatusScheduled {
		t.Fatalf("future post status = %s", st)
	}
	if st := f.posts.get(draft.ID).Status; st != models.PostStatusDraft {
		t.Fatalf("draft status = %s", st)
	}
}

func TestPublishDuePostsRespectsBatchLimit(t *testing.T) {
	var posts []*models.LinkedInPost
	for i := 0; i < 4; i++ {
		posts = append(posts, scheduledPost(testNow.Add(-time.Duration(i+1)*time.Minute)))
	}
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}, posts...)
	f.svc.cfg.LinkedIn.PublishBatch = 2
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

	n, err := f.svc.PublishDuePosts(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("PublishDuePosts = %d, %v", n, err)
	}
	// oldest first
	for _, p := range posts[2:] {
		if st := f.posts.get(p.ID).Status; st != models.PostStatusPosted {
			t.Fatalf("oldest post %s status = %s", p.ID, st)
		}
	}
}

func TestPublishDuePostsRejectsOverlappingRun(t *testing.T) {
	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.svc.running.Lock()
	defer f.svc.running.Unlock()

	if _, err := f.svc.PublishDuePosts(context.Background()); !errors.Is(err, ErrPublishInProgress) {
		t.Fatalf("err = %v, want ErrPublishInProgress", err)
	}
}

func TestPublishNow(t *testing.T) {
	draft := &models.LinkedInPost{ID: uuid.New(), Content: "draft", Status: models.PostStatusDraft, AuthorID: "kai"}
	approved := &models.LinkedInPost{ID: uuid.New(), Content: "ready", Status: models.PostStatusApproved, AuthorID: "kai"}

	f := newPublisherFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-restli-id", "urn:li:share:7")
		w.WriteHeader(http.StatusCreated)
	}, draft, approved)
	f.creds.rows = append(f.creds.rows, storedCredential(t, testNow.Add(time.Hour)))

	if _, err := f.svc.PublishNow(context.Background(), draft.ID); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("draft: err = %v, want ErrInvalidStatus", err)
	}
	if st := f.posts.get(draft.ID).Status; st != models.PostStatusDraft {
		t.Fatalf("draft status changed to %s", st)
	}

	if _, err := f.svc.PublishNow(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v, want ErrNotFound", err)
	}

	post, err := f.svc.PublishNow(context.Background(), approved.ID)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}
	if post.Status != models.PostStatusPosted || *post.LinkedInPostID != "urn:li:share:7" {
		t.Fatalf("post = %s / %v", post.Status, post.LinkedInPostID)
	}
}

func TestBuildUGCPostWithMedia(t *testing.T) {
	title := "Launch notes"
	post := &models.LinkedInPost{
		Content:   "Read the write-up",
		Title:     &title,
		MediaURLs: []string{"", "https://cdn.example.com/a.png", "https://cdn.example.com/b.png"},
	}

	ugc := BuildUGCPost("urn:li:person:abc", post)
	share := ugc.SpecificContent[transfer.ShareContentKey]
	if share.ShareMediaCategory != transfer.MediaCategoryArticle {
		t.Fatalf("category = %s", share.ShareMediaCategory)
	}
	if len(share.Media) != 1 || share.Media[0].OriginalURL != "https://cdn.example.com/a.png" {
		t.Fatalf("media = %+v", share.Media)
	}
	if share.Media[0].Title == nil || share.Media[0].Title.Text != title {
		t.Fatalf("media title = %+v", share.Media[0].Title)
	}
}

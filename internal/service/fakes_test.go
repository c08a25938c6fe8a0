package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/repository"
)

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]*models.LinkedInPost
}

func newFakePostRepo(posts ...*models.LinkedInPost) *fakePostRepo {
	r := &fakePostRepo{posts: make(map[uuid.UUID]*models.LinkedInPost)}
	for _, p := range posts {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.posts[p.ID] = p
	}
	return r
}

func clonePost(p *models.LinkedInPost) *models.LinkedInPost {
	c := *p
	if p.MediaURLs != nil {
		c.MediaURLs = make([]string, len(p.MediaURLs))
		copy(c.MediaURLs, p.MediaURLs)
	}
	return &c
}

func (r *fakePostRepo) Create(ctx context.Context, post *models.LinkedInPost) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = uuid.New()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = clonePost(post)
	return post.ID, nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.LinkedInPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *fakePostRepo) List(ctx context.Context, status models.PostStatus) ([]*models.LinkedInPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LinkedInPost
	for _, p := range r.posts {
		if status == "" || p.Status == status {
			out = append(out, clonePost(p))
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.LinkedInPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LinkedInPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePostRepo) UpdateContent(ctx context.Context, post *models.LinkedInPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[post.ID]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	p.Title, p.Content, p.MediaURLs = post.Title, post.Content, append([]string(nil), post.MediaURLs...)
	return nil
}

func (r *fakePostRepo) UpdateWorkflow(ctx context.Context, post *models.LinkedInPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[post.ID]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	p.Status, p.ScheduledAt = post.Status, post.ScheduledAt
	p.ApprovedBy, p.ApprovedAt = post.ApprovedBy, post.ApprovedAt
	p.Feedback, p.Error = post.Feedback, post.Error
	return nil
}

func (r *fakePostRepo) MarkPosted(ctx context.Context, id uuid.UUID, postedAt time.Time, linkedInPostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	p.Status = models.PostStatusPosted
	p.PostedAt = &postedAt
	p.LinkedInPostID = &linkedInPostID
	p.Error = nil
	return nil
}

func (r *fakePostRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	p.Status = models.PostStatusFailed
	p.Error = &errMsg
	return nil
}

func (r *fakePostRepo) AppendMedia(ctx context.Context, id uuid.UUID, mediaURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	p.MediaURLs = append(p.MediaURLs, mediaURL)
	return nil
}

func (r *fakePostRepo) Remove(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNoRowsAffected
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) get(id uuid.UUID) *models.LinkedInPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clonePost(r.posts[id])
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*models.PublishAttempt
}

func (r *fakeAttemptRepo) Create(ctx context.Context, pa *models.PublishAttempt) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *pa
	c.ID = int64(len(r.attempts) + 1)
	r.attempts = append(r.attempts, &c)
	return c.ID, nil
}

func (r *fakeAttemptRepo) ListByPostID(ctx context.Context, postID uuid.UUID) ([]*models.PublishAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range r.attempts {
		if a.PostID == postID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCredentialRepo struct {
	mu    sync.Mutex
	rows  []*models.LinkedInCredential
	next  int64
	fails error
}

func (r *fakeCredentialRepo) GetCurrent(ctx context.Context) (*models.LinkedInCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return nil, nil
	}
	c := *r.rows[len(r.rows)-1]
	return &c, nil
}

func (r *fakeCredentialRepo) Replace(ctx context.Context, c *models.LinkedInCredential) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails != nil {
		return 0, r.fails
	}
	r.next++
	stored := *c
	stored.ID = r.next
	stored.CreatedAt = time.Now()
	r.rows = []*models.LinkedInCredential{&stored}
	return stored.ID, nil
}

func (r *fakeCredentialRepo) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	return nil
}

func (r *fakeCredentialRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeCronRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.CronJob
}

func newFakeCronRepo() *fakeCronRepo {
	return &fakeCronRepo{jobs: make(map[string]*models.CronJob)}
}

func (r *fakeCronRepo) Upsert(ctx context.Context, job *models.CronJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *job
	r.jobs[job.JobID] = &c
	return nil
}

func (r *fakeCronRepo) GetByJobID(ctx context.Context, jobID string) (*models.CronJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	c := *j
	return &c, nil
}

func (r *fakeCronRepo) List(ctx context.Context, agentID string) ([]*models.CronJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CronJob
	for _, j := range r.jobs {
		if agentID == "" || (j.AgentID != nil && *j.AgentID == agentID) {
			c := *j
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeCronRepo) SetEnabled(ctx context.Context, jobID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return repository.ErrNoRowsAffected
	}
	j.Enabled = enabled
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*models.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *models.Task) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	c.ID = uuid.New()
	r.tasks[c.ID] = &c
	return c.ID, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r *fakeTaskRepo) GetBySourceRef(ctx context.Context, ref string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.SourceRef != nil && *t.SourceRef == ref {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, status string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Task
	for _, t := range r.tasks {
		if status == "" || t.Status == status {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return repository.ErrNoRowsAffected
	}
	c := *t
	r.tasks[t.ID] = &c
	return nil
}

type fakeUsageRepo struct {
	records []*models.UsageRecord
}

func (r *fakeUsageRepo) CreateBatch(ctx context.Context, records []*models.UsageRecord) error {
	r.records = append(r.records, records...)
	return nil
}

func (r *fakeUsageRepo) Summary(ctx context.Context, since time.Time) ([]*models.UsageSummary, error) {
	byKey := map[[2]string]*models.UsageSummary{}
	var out []*models.UsageSummary
	for _, rec := range r.records {
		if rec.RecordedAt.Before(since) {
			continue
		}
		k := [2]string{rec.AgentID, rec.Model}
		s, ok := byKey[k]
		if !ok {
			s = &models.UsageSummary{AgentID: rec.AgentID, Model: rec.Model}
			byKey[k] = s
			out = append(out, s)
		}
		s.Requests++
		s.InputTokens += rec.InputTokens
		s.OutputTokens += rec.OutputTokens
		s.CostUSD += rec.CostUSD
	}
	return out, nil
}

type fakeGateway struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (g *fakeGateway) SendMessage(ctx context.Context, sessionKey, message string) (json.RawMessage, error) {
	return json.RawMessage(`{"ok":true}`), g.err
}

func (g *fakeGateway) CronAction(ctx context.Context, jobID, action string) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.actions = append(g.actions, jobID+":"+action)
	return json.RawMessage(`{"ok":true}`), nil
}

func (g *fakeGateway) SessionUsage(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return json.RawMessage(`[]`), g.err
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingEvents) has(typ string) bool {
	for _, t := range r.types() {
		if t == typ {
			return true
		}
	}
	return false
}

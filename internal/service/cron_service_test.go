package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/mission-control/internal/models"
	"github.com/maheshrc27/mission-control/internal/transfer"
)

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.ScheduleKind
		wantErr bool
	}{
		{name: "every object", raw: `{"kind":"every","everyMs":60000}`, want: models.ScheduleEvery},
		{name: "every as string", raw: `"{\"kind\":\"every\",\"everyMs\":1000}"`, want: models.ScheduleEvery},
		{name: "cron with tz", raw: `{"kind":"cron","expr":"0 9 * * 1-5","tz":"Europe/Berlin"}`, want: models.ScheduleCron},
		{name: "cron descriptor", raw: `{"kind":"cron","expr":"@daily"}`, want: models.ScheduleCron},
		{name: "cron with seconds", raw: `{"kind":"cron","expr":"0 */5 * * * *"}`, want: models.ScheduleCron},
		{name: "at rfc3339", raw: `{"kind":"at","at":"2025-04-01T08:00:00Z"}`, want: models.ScheduleAt},
		{name: "at millis", raw: `{"kind":"at","atMs":1743494400000}`, want: models.ScheduleAt},
		{name: "every zero", raw: `{"kind":"every","everyMs":0}`, wantErr: true},
		{name: "cron bad expr", raw: `{"kind":"cron","expr":"every tuesday"}`, wantErr: true},
		{name: "cron bad tz", raw: `{"kind":"cron","expr":"0 9 * * *","tz":"Mars/Olympus"}`, wantErr: true},
		{name: "at garbage", raw: `{"kind":"at","at":"next week"}`, wantErr: true},
		{name: "unknown kind", raw: `{"kind":"sometimes"}`, wantErr: true},
		{name: "string not json", raw: `"*/5 * * * *"`, wantErr: true},
		{name: "missing", raw: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCronSchedule(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCronSchedule: %v", err)
			}
			if got.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2025, 3, 14, 7, 30, 0, 0, time.UTC)

	every := NextRun(models.CronSchedule{Kind: models.ScheduleEvery, EveryMs: 90_000}, now)
	if every == nil || !every.Equal(now.Add(90*time.Second)) {
		t.Fatalf("every next = %v", every)
	}

	// 09:00 in Berlin is 08:00 UTC in March before DST.
	cron := NextRun(models.CronSchedule{Kind: models.ScheduleCron, Expr: "0 9 * * *", TZ: "Europe/Berlin"}, now)
	if cron == nil || !cron.Equal(time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("cron next = %v", cron)
	}

	past := now.Add(-time.Hour)
	if at := NextRun(models.CronSchedule{Kind: models.ScheduleAt, At: &past}, now); at != nil {
		t.Fatalf("past at next = %v, want nil", at)
	}
}

func newCronFixture() (*cronService, *fakeCronRepo, *fakeGateway) {
	repo := newFakeCronRepo()
	gw := &fakeGateway{}
	svc := NewCronService(repo, gw, &recordingEvents{}).(*cronService)
	svc.now = func() time.Time { return testNow }
	return svc, repo, gw
}

func TestCronSyncPartialFailure(t *testing.T) {
	svc, repo, _ := newCronFixture()
	body := `[
		{"jobId":"daily-digest","name":"Daily digest","agentId":"kai","schedule":{"kind":"cron","expr":"0 8 * * *","tz":"UTC"},"payload":{"kind":"agentTurn"}},
		{"jobId":"broken","schedule":{"kind":"cron","expr":"not a cron"}},
		{"id":"heartbeat","enabled":false,"schedule":"{\"kind\":\"every\",\"everyMs\":300000}","state":{"lastRunAtMs":1741900000000}}
	]`

	res, err := svc.Sync(context.Background(), []byte(body))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Synced != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v, want synced=2 failed=1", res)
	}
	if len(res.Errors) != 1 || res.Errors[0].JobID != "broken" {
		t.Fatalf("errors = %+v", res.Errors)
	}

	digest, _ := repo.GetByJobID(context.Background(), "daily-digest")
	if digest == nil || !digest.Enabled || digest.PayloadKind != "agentTurn" || *digest.AgentID != "kai" {
		t.Fatalf("digest = %+v", digest)
	}
	if digest.NextRunAt == nil || !digest.NextRunAt.After(testNow) {
		t.Fatalf("digest next run = %v", digest.NextRunAt)
	}

	hb, _ := repo.GetByJobID(context.Background(), "heartbeat")
	if hb == nil || hb.Enabled || hb.Schedule.EveryMs != 300000 {
		t.Fatalf("heartbeat = %+v", hb)
	}
	if hb.LastRunAt == nil || hb.NextRunAt != nil {
		t.Fatalf("heartbeat runs = %v / %v", hb.LastRunAt, hb.NextRunAt)
	}
}

func TestCronSyncAcceptsJobsWrapper(t *testing.T) {
	svc, _, _ := newCronFixture()
	res, err := svc.Sync(context.Background(), []byte(`{"jobs":[{"jobId":"a","schedule":{"kind":"every","everyMs":1000}}]}`))
	if err != nil || res.Synced != 1 {
		t.Fatalf("Sync = %+v, %v", res, err)
	}
}

func TestCronSyncRejectsMalformedBody(t *testing.T) {
	svc, _, _ := newCronFixture()
	for _, body := range []string{``, `"jobs"`, `{"items":[]}`, `[{"jobId":`, `42`} {
		_, err := svc.Sync(context.Background(), []byte(body))
		var ve *transfer.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("body %q: err = %v, want validation error", body, err)
		}
	}
}

func TestCronSyncMissingJobID(t *testing.T) {
	svc, _, _ := newCronFixture()
	res, err := svc.Sync(context.Background(), []byte(`[{"schedule":{"kind":"every","everyMs":1000}}, {"jobId":7}]`))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Failed != 2 || res.Synced != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestCronAction(t *testing.T) {
	svc, repo, gw := newCronFixture()
	ctx := context.Background()
	repo.Upsert(ctx, &models.CronJob{JobID: "digest", Enabled: true})

	if _, err := svc.Action(ctx, &transfer.CronAction{JobID: "digest", Action: "disable"}); err != nil {
		t.Fatalf("Action: %v", err)
	}
	job, _ := repo.GetByJobID(ctx, "digest")
	if job.Enabled {
		t.Fatal("job still enabled")
	}
	if len(gw.actions) != 1 || gw.actions[0] != "digest:disable" {
		t.Fatalf("gateway actions = %v", gw.actions)
	}

	if _, err := svc.Action(ctx, &transfer.CronAction{JobID: "missing", Action: "run"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	gw.err = &GatewayError{Status: 502, Body: "upstream down"}
	if _, err := svc.Action(ctx, &transfer.CronAction{JobID: "digest", Action: "enable"}); err == nil {
		t.Fatal("expected gateway error")
	}
	job, _ = repo.GetByJobID(ctx, "digest")
	if job.Enabled {
		t.Fatal("enabled flag changed although the gateway refused")
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maheshrc27/mission-control/internal/transfer"
)

func TestUsageIngestAndSummary(t *testing.T) {
	repo := &fakeUsageRepo{}
	svc := NewUsageService(repo, &recordingEvents{}).(*usageService)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	n, err := svc.Ingest(ctx, []byte(`{"agent_id":"kai","model":"opus","input_tokens":100,"output_tokens":20,"cost_usd":0.5}`))
	if err != nil || n != 1 {
		t.Fatalf("single ingest = %d, %v", n, err)
	}

	n, err = svc.Ingest(ctx, []byte(`[
		{"agent_id":"kai","model":"opus","input_tokens":50,"output_tokens":5,"cost_usd":0.25},
		{"agent_id":"rex","model":"haiku","input_tokens":10,"output_tokens":1,"cost_usd":0.01}
	]`))
	if err != nil || n != 2 {
		t.Fatalf("batch ingest = %d, %v", n, err)
	}
	if !repo.records[0].RecordedAt.Equal(testNow) {
		t.Fatalf("recorded_at = %v, want now", repo.records[0].RecordedAt)
	}

	summary, err := svc.Summary(ctx, nil)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("summary rows = %d", len(summary))
	}
	kai := summary[0]
	if kai.AgentID != "kai" || kai.Requests != 2 || kai.InputTokens != 150 || kai.CostUSD != 0.75 {
		t.Fatalf("kai = %+v", kai)
	}
}

func TestUsageIngestRejectsWholeBatch(t *testing.T) {
	repo := &fakeUsageRepo{}
	svc := NewUsageService(repo, &recordingEvents{})

	_, err := svc.Ingest(context.Background(), []byte(`[{"agent_id":"kai","model":"opus"},{"agent_id":"","model":"opus"}]`))
	var ve *transfer.ValidationError
	if !errors.As(err, &ve) || ve.Field != "[1].agent_id" {
		t.Fatalf("err = %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatal("records stored from a rejected batch")
	}

	if _, err := svc.Ingest(context.Background(), []byte(`"nope"`)); !errors.As(err, &ve) {
		t.Fatalf("err = %v", err)
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := b.Subscribe(ctx)
	second := b.Subscribe(ctx)

	b.Publish(Event{Type: PostUpdated, Entity: "linkedin_post", ID: "p1"})

	for i, ch := range []<-chan Event{first, second} {
		select {
		case evt := <-ch:
			if evt.ID != "p1" || evt.At.IsZero() {
				t.Errorf("subscriber %d got unexpected event %+v", i, evt)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewBroker(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	if n := b.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx)

	b.Publish(Event{Type: PostUpdated, ID: "a"})
	b.Publish(Event{Type: PostUpdated, ID: "b"})

	evt := <-ch
	if evt.ID != "a" {
		t.Errorf("expected first event to survive, got %s", evt.ID)
	}
	select {
	case evt := <-ch:
		t.Errorf("expected second event to be dropped, got %+v", evt)
	default:
	}
}

type recordingSink struct {
	mu     sync.Mutex
	got    []Event
	closed bool
}

func (s *recordingSink) Deliver(_ context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, evt)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestAttachFiltersAndCloses(t *testing.T) {
	b := NewBroker(8)
	ctx, cancel := context.WithCancel(context.Background())
	sink := &recordingSink{}
	b.Attach(ctx, sink, FailuresOnly)

	b.Publish(Event{Type: PostPosted, ID: "ok"})
	b.Publish(Event{Type: PostFailed, ID: "bad"})

	deadline := time.Now().Add(time.Second)
	for {
		sink.mu.Lock()
		n := len(sink.got)
		sink.mu.Unlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	b.Wait()

	if len(sink.got) != 1 || sink.got[0].ID != "bad" {
		t.Fatalf("expected only the failure event, got %+v", sink.got)
	}
	if !sink.closed {
		t.Error("sink should be closed after the context ends")
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSinkMessageShape(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{w: w}

	err := sink.Deliver(context.Background(), Event{Type: CronSynced, Entity: "cron_job", ID: "j1", At: time.Now()})
	if err != nil {
		t.Fatalf("Deliver() error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "cron_job:j1" {
		t.Errorf("unexpected key %q", msg.Key)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.Type != CronSynced {
		t.Errorf("expected type %s, got %s", CronSynced, decoded.Type)
	}
}

func TestKafkaSinkPropagatesError(t *testing.T) {
	sink := &KafkaSink{w: &fakeWriter{err: errors.New("broker down")}}
	if err := sink.Deliver(context.Background(), Event{Type: PostFailed}); err == nil {
		t.Fatal("expected writer error")
	}
}

func TestSlackSinkPostsWebhook(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewSlackSink(server.URL)
	err := sink.Deliver(context.Background(), Event{
		Type: PostFailed,
		ID:   "p9",
		Data: map[string]any{"error": "LinkedIn token expired, please reconnect"},
		At:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Deliver() error: %v", err)
	}
	text, _ := body["text"].(string)
	if text == "" {
		t.Fatalf("expected webhook text, got %+v", body)
	}
}

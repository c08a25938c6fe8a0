// Package events carries change notifications from services to whoever is
// listening: the dashboard's server-sent event stream, a Kafka topic, or a
// Slack channel. Producers never know which transport is attached.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	PostUpdated     = "post.updated"
	PostPosted      = "post.posted"
	PostFailed      = "post.failed"
	CredentialSaved = "credential.saved"
	CronSynced      = "cron.synced"
	CronUpdated     = "cron.updated"
	AgentHeartbeat  = "agent.heartbeat"
	TaskUpdated     = "task.updated"
	QuestUpdated    = "quest.updated"
	ImprovementSet  = "improvement.updated"
	UsageRecorded   = "usage.recorded"
)

type Event struct {
	Type   string    `json:"type"`
	Entity string    `json:"entity"`
	ID     string    `json:"id,omitempty"`
	Data   any       `json:"data,omitempty"`
	At     time.Time `json:"at"`
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(evt Event)
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard drops every event.
var Discard Publisher = discard{}

// Sink receives events outside the process.
type Sink interface {
	Deliver(ctx context.Context, evt Event) error
	Close() error
}

type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	buffer int
	wg     sync.WaitGroup
}

func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{subs: make(map[int]chan Event), buffer: buffer}
}

// Publish fans evt out to every subscriber. A subscriber whose buffer is full
// misses the event; the UI refetches on reconnect.
func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", evt.Type)
		}
	}
}

// Subscribe returns a channel that is closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Subscribers reports the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Attach forwards matching events to sink until ctx is done. A nil filter
// forwards everything.
func (b *Broker) Attach(ctx context.Context, sink Sink, filter func(Event) bool) {
	ch := b.Subscribe(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer sink.Close()
		for evt := range ch {
			if filter != nil && !filter(evt) {
				continue
			}
			deliverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := sink.Deliver(deliverCtx, evt); err != nil {
				slog.Info("event sink delivery failed", "type", evt.Type, "error", err)
			}
			cancel()
		}
	}()
}

// Wait blocks until every attached sink has drained and closed.
func (b *Broker) Wait() {
	b.wg.Wait()
}

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/mission-control/internal/events"
	"github.com/valyala/fasthttp"
)

const keepAliveInterval = 15 * time.Second

type Subscriber interface {
	Subscribe(ctx context.Context) <-chan events.Event
}

type EventsHandler struct {
	ctx    context.Context
	broker Subscriber
}

// NewEventsHandler ties every stream to ctx; cancelling it ends open streams so
// the server can shut down.
func NewEventsHandler(ctx context.Context, broker Subscriber) *EventsHandler {
	return &EventsHandler{ctx: ctx, broker: broker}
}

// Stream sends every event as a server-sent event until the client goes away.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(h.ctx)
	ch := h.broker.Subscribe(ctx)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, evt); err != nil {
					slog.Info("event encode failed", "type", evt.Type, "error", err)
					continue
				}
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case <-ctx.Done():
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if evt.ID != "" {
		fmt.Fprintf(w, "id: %s\n", evt.ID)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"
)

type SlackSink struct {
	webhookURL string
}

func NewSlackSink(webhookURL string) *SlackSink {
	return &SlackSink{webhookURL: webhookURL}
}

// FailuresOnly selects the events worth paging a human about.
func FailuresOnly(evt Event) bool {
	return evt.Type == PostFailed
}

func (s *SlackSink) Deliver(ctx context.Context, evt Event) error {
	reason := ""
	if m, ok := evt.Data.(map[string]any); ok {
		if e, ok := m["error"].(string); ok {
			reason = e
		}
	}

	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf(":warning: LinkedIn post %s failed to publish", evt.ID),
		Attachments: []slack.Attachment{{
			Color: "danger",
			Text:  reason,
			Ts:    json.Number(strconv.FormatInt(evt.At.Unix(), 10)),
		}},
	}
	return slack.PostWebhookContext(ctx, s.webhookURL, msg)
}

func (s *SlackSink) Close() error { return nil }

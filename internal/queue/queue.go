package queue

import (
	"context"
)

const TaskTypePublishDue = "linkedin:publish_due"

// DuePublisher is the part of the publisher the worker drives.
type DuePublisher interface {
	PublishDuePosts(ctx context.Context) (int, error)
}

type Queue struct {
	publisher DuePublisher
}

func NewQueue(publisher DuePublisher) *Queue {
	return &Queue{publisher: publisher}
}

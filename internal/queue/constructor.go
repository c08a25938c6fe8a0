package queue

import (
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueuePublishDue queues one publish run. While a run is queued or active
// further requests within uniqueFor are dropped.
func EnqueuePublishDue(client TaskEnqueuer, uniqueFor time.Duration) error {
	task := asynq.NewTask(TaskTypePublishDue, nil)

	_, err := client.Enqueue(task,
		asynq.Unique(uniqueFor),
		asynq.MaxRetry(0),
		asynq.Timeout(uniqueFor),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("publish run already queued")
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

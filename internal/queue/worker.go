package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/mission-control/internal/service"
)

func (j *Queue) HandlePublishDueTask(ctx context.Context, task *asynq.Task) error {
	published, err := j.publisher.PublishDuePosts(ctx)
	if errors.Is(err, service.ErrPublishInProgress) {
		slog.Info("publish run skipped, another run is active")
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if published > 0 {
		slog.Info("publish run done", "published", published)
	}
	return nil
}

// Register mounts the queue's handlers on mux.
func (j *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishDue, j.HandlePublishDueTask)
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
)

const firstRetryDelay = 30 * time.Second

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type RetryScheduler struct {
	client     Enqueuer
	maxRetries int
}

// NewRetryScheduler returns nil when retries are disabled.
func NewRetryScheduler(client Enqueuer, cfg config.Config) *RetryScheduler {
	if cfg.Jobs.PublishMaxRetries <= 0 {
		return nil
	}
	return &RetryScheduler{client: client, maxRetries: cfg.Jobs.PublishMaxRetries}
}

// ScheduleRetry enqueues another publish attempt. The task itself is the
// first retry; asynq runs it at most maxRetries times in total.
func (s *RetryScheduler) ScheduleRetry(ctx context.Context, postID string, platform models.Platform) error {
	payload := PublishRetryPayload{PostID: postID, Platform: platform}
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishRetry, taskPayload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(taskID(postID, platform)),
		asynq.MaxRetry(s.maxRetries-1),
		asynq.ProcessIn(firstRetryDelay),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		slog.Info(err.Error(), "post_id", postID, "platform", platform)
		return err
	}

	slog.Info("publish retry scheduled", "post_id", postID, "platform", platform)
	return nil
}

// RetryDelay doubles the wait after each failed retry, up to 15 minutes.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	const maxDelay = 15 * time.Minute
	if n > 10 {
		return maxDelay
	}
	d := firstRetryDelay << n
	if d > maxDelay {
		return maxDelay
	}
	return d
}

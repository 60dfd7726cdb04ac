package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/service"
)

type Worker struct {
	pr repository.PostRepository
	ps service.PublishService
}

func NewWorker(pr repository.PostRepository, ps service.PublishService) *Worker {
	return &Worker{pr: pr, ps: ps}
}

func (w *Worker) HandlePublishRetryTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	post, err := w.pr.Get(ctx, payload.PostID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("post %s is gone: %w", payload.PostID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}
	if post.Status != models.PostStatusPublished {
		return fmt.Errorf("post %s is %s: %w", post.ID, post.Status, asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	// attempt 1 was made by the dispatch job
	err = w.ps.PublishToPlatform(ctx, post, payload.Platform, retried+2)
	if err == nil {
		return nil
	}

	if errors.Is(err, models.ErrNotConnected) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	var statusErr *service.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

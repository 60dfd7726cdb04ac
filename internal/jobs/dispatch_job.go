package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/service"
)

// RetryScheduler queues another publish attempt for one platform of a post
// that has already been claimed.
type RetryScheduler interface {
	ScheduleRetry(ctx context.Context, postID string, platform models.Platform) error
}

// retryEnqueueTimeout bounds the hand-off to the retry queue, which runs
// detached from the run's deadline.
const retryEnqueueTimeout = 5 * time.Second

type DispatchReport struct {
	Due          int
	Published    int
	Skipped      int
	NotConnected int
	// Unclaimed counts due posts left scheduled because the run ran out of time.
	Unclaimed int
	Failures  []error
}

type DispatchJob struct {
	pr          repository.PostRepository
	ps          service.PublishService
	retry       RetryScheduler
	tolerance   time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewDispatchJob wires the job. retry may be nil, in which case failed
// platforms are only recorded.
func NewDispatchJob(cfg config.Config, pr repository.PostRepository, ps service.PublishService, retry RetryScheduler) *DispatchJob {
	concurrency := cfg.Jobs.PublishConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	return &DispatchJob{
		pr:          pr,
		ps:          ps,
		retry:       retry,
		tolerance:   cfg.Jobs.DispatchTolerance,
		concurrency: concurrency,
		logger:      slog.Default(),
	}
}

func (j *DispatchJob) Name() string { return "dispatch" }

func (j *DispatchJob) Run(ctx context.Context, now Clock) error {
	report, err := j.Dispatch(ctx, now())
	if report == nil {
		return err
	}

	j.logger.Info("dispatch finished",
		"due", report.Due,
		"published", report.Published,
		"skipped", report.Skipped,
		"not_connected", report.NotConnected,
		"unclaimed", report.Unclaimed,
		"failures", len(report.Failures))
	return err
}

// Dispatch publishes every scheduled post due around now. A post is claimed
// by moving it to published before any platform call, so concurrent runs
// never publish it twice. It stays published whatever the platforms answer.
func (j *DispatchJob) Dispatch(ctx context.Context, now time.Time) (*DispatchReport, error) {
	window := DispatchWindow(now, j.tolerance)

	due, err := j.pr.FindDue(ctx, models.PostStatusScheduled, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	report := &DispatchReport{Due: len(due)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, j.concurrency)

loop:
	for i, post := range due {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			report.Unclaimed += len(due) - i
			mu.Unlock()
			break loop
		}

		wg.Add(1)
		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				mu.Lock()
				report.Unclaimed++
				mu.Unlock()
				return
			}

			claimed, err := j.pr.Transition(ctx, post.ID, models.PostStatusScheduled, models.PostStatusPublished)
			if err != nil {
				mu.Lock()
				report.Failures = append(report.Failures, err)
				mu.Unlock()
				return
			}
			if !claimed {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return
			}

			mu.Lock()
			report.Published++
			mu.Unlock()

			for _, platform := range post.Targets() {
				err := j.ps.PublishToPlatform(ctx, post, platform, 1)
				if err == nil {
					continue
				}

				mu.Lock()
				if errors.Is(err, models.ErrNotConnected) {
					report.NotConnected++
				} else {
					report.Failures = append(report.Failures, err)
				}
				mu.Unlock()

				if errors.Is(err, models.ErrNotConnected) {
					j.logger.Info(err.Error(), "post_id", post.ID)
					continue
				}
				j.logger.Error("publish failed", "post_id", post.ID, "platform", platform, "error", err)

				if j.retry != nil {
					j.scheduleRetry(ctx, post.ID, platform)
				}
			}
		}(post)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("dispatch stopped with %d of %d due posts unclaimed: %w", report.Unclaimed, report.Due, err)
	}
	return report, nil
}

// scheduleRetry hands a claimed post's failed platform to the retry queue.
// The post is already published, so the hand-off must outlive the run.
func (j *DispatchJob) scheduleRetry(ctx context.Context, postID string, platform models.Platform) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), retryEnqueueTimeout)
	defer cancel()

	if err := j.retry.ScheduleRetry(ctx, postID, platform); err != nil {
		j.logger.Error("unable to schedule retry", "post_id", postID, "platform", platform, "error", err)
	}
}

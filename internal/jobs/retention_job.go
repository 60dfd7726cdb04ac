package job

import (
	"context"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
)

type RetentionJob struct {
	pr     repository.PostRepository
	period time.Duration
}

func NewRetentionJob(cfg config.Config, pr repository.PostRepository) *RetentionJob {
	return &RetentionJob{pr: pr, period: cfg.Jobs.RetentionPeriod}
}

func (j *RetentionJob) Name() string { return "retention" }

func (j *RetentionJob) Run(ctx context.Context, now Clock) error {
	cutoff := RetentionCutoff(now(), j.period)

	deleted, err := j.pr.DeleteOlderThan(ctx, models.PostStatusPublished, cutoff)
	if err != nil {
		return err
	}

	slog.Info("retention finished", "cutoff", cutoff, "deleted", deleted)
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
)

// PublishService publishes a post to one platform and records the outcome.
type PublishService interface {
	PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform, attempt int) error
}

type publishService struct {
	publishers map[models.Platform]Publisher
	tokens     TokenService
	attempts   repository.PublishAttemptRepository
	timeout    time.Duration
	now        func() time.Time
}

func NewPublishService(
	cfg config.Config,
	tokens TokenService,
	attempts repository.PublishAttemptRepository,
	publishers ...Publisher) PublishService {
	byPlatform := make(map[models.Platform]Publisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}

	return &publishService{
		publishers: byPlatform,
		tokens:     tokens,
		attempts:   attempts,
		timeout:    cfg.Jobs.PublishTimeout,
		now:        time.Now,
	}
}

// PublishToPlatform returns a *models.NotConnectedError when the owner has no
// account on platform and a *models.PublishError for any other failure.
func (s *publishService) PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform, attempt int) error {
	publisher, ok := s.publishers[platform]
	if !ok {
		err := &models.PublishError{PostID: post.ID, Platform: platform, Err: fmt.Errorf("no publisher for %s", platform)}
		s.record(ctx, post, platform, attempt, "", err)
		return err
	}

	token, err := s.tokens.GetValidToken(ctx, post.OwnerID, platform)
	if err != nil {
		if !errors.Is(err, models.ErrNotConnected) {
			err = &models.PublishError{PostID: post.ID, Platform: platform, Err: err}
		}
		s.record(ctx, post, platform, attempt, "", err)
		return err
	}

	publishCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	remoteID, err := publisher.Publish(publishCtx, token, post.BodyFor(platform), post.Media)
	if err != nil {
		err = &models.PublishError{PostID: post.ID, Platform: platform, Err: err}
	}
	s.record(ctx, post, platform, attempt, remoteID, err)
	return err
}

func (s *publishService) record(ctx context.Context, post *models.Post, platform models.Platform, attempt int, remoteID string, err error) {
	pa := &models.PublishAttempt{
		PostID:      post.ID,
		OwnerID:     post.OwnerID,
		Platform:    platform,
		Attempt:     attempt,
		Outcome:     models.OutcomeSuccess,
		RemoteID:    remoteID,
		AttemptedAt: s.now(),
	}
	switch {
	case errors.Is(err, models.ErrNotConnected):
		pa.Outcome = models.OutcomeSkipped
		pa.ErrorMessage = err.Error()
	case err != nil:
		pa.Outcome = models.OutcomeFailed
		pa.ErrorMessage = err.Error()
	}

	// the post has already been claimed, so a lost record must not turn
	// into a publish failure
	if _, recErr := s.attempts.Create(context.WithoutCancel(ctx), pa); recErr != nil {
		slog.Warn("unable to record publish attempt", "post_id", post.ID, "platform", platform, "error", recErr)
	}
}

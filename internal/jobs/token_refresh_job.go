package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/service"
)

const (
	refreshAhead     = 30 * time.Minute
	refreshBatchSize = 10
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	ts service.TokenService
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, ts service.TokenService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		ts: ts,
	}
}

func (j *TokenRefreshJob) Name() string { return "token_refresh" }

// Run refreshes every account whose token expires within the next 30
// minutes.
func (j *TokenRefreshJob) Run(ctx context.Context, now Clock) error {
	accounts, err := j.sr.ListExpiring(ctx, now().Add(refreshAhead))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	semaphore := make(chan struct{}, refreshBatchSize)

	for _, acc := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := j.ts.RefreshToken(ctx, acc); err != nil {
				slog.Info("unable to refresh token", "owner_id", acc.OwnerID, "platform", acc.Platform, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(acc)
	}

	wg.Wait()
	if failed > 0 {
		return fmt.Errorf("%d of %d token refreshes failed", failed, len(accounts))
	}
	return nil
}

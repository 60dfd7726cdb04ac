package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := repository.Open(repository.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() config.Config {
	return config.Config{
		Jobs: config.Jobs{
			DispatchTolerance:  2 * time.Minute,
			RetentionPeriod:    7 * 24 * time.Hour,
			PublishConcurrency: 4,
		},
	}
}

func clockAt(t time.Time) Clock {
	return func() time.Time { return t }
}

func seedPost(t *testing.T, pr repository.PostRepository, id string, status models.Status, at time.Time, variants ...models.PlatformContent) {
	t.Helper()
	p := &models.Post{
		ID:          id,
		OwnerID:     "u1",
		Content:     "hello " + id,
		Status:      status,
		ScheduledAt: &at,
		TimeZone:    "UTC",
		CreatedAt:   at.Add(-time.Hour),
		UpdatedAt:   at.Add(-time.Hour),
		Variants:    variants,
	}
	ok, err := pr.Upsert(context.Background(), p)
	require.NoError(t, err)
	require.True(t, ok)
}

type publishCall struct {
	PostID   string
	Platform models.Platform
}

// fakePublisher records calls and answers with the configured error per
// platform.
type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	errs  map[models.Platform]error
}

func (f *fakePublisher) PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, publishCall{PostID: post.ID, Platform: platform})
	return f.errs[platform]
}

func (f *fakePublisher) callsFor(postID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// blockingPublisher holds every publish until the run's context ends.
type blockingPublisher struct{}

func (blockingPublisher) PublishToPlatform(ctx context.Context, post *models.Post, platform models.Platform, attempt int) error {
	<-ctx.Done()
	return &models.PublishError{PostID: post.ID, Platform: platform, Err: ctx.Err()}
}

type fakeRetry struct {
	mu      sync.Mutex
	retries []publishCall
	ctxErrs []error
}

func (f *fakeRetry) ScheduleRetry(ctx context.Context, postID string, platform models.Platform) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries = append(f.retries, publishCall{PostID: postID, Platform: platform})
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return ctx.Err()
}

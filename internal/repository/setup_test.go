package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens the database named by TEST_DRIVER and TEST_DSN, falling
// back to an in-memory sqlite database.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	driver := os.Getenv("TEST_DRIVER")
	dsn := os.Getenv("TEST_DSN")
	if driver == "" {
		driver, dsn = DriverSQLite, ":memory:"
	}

	db, err := Open(driver, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))

	t.Cleanup(func() {
		if driver != DriverSQLite {
			for _, table := range []string{"post_variants", "post_media", "publish_attempts", "social_accounts", "posts"} {
				db.Exec("DELETE FROM " + table)
			}
		}
		db.Close()
	})
	return db
}

func scheduledPost(id, owner string, at time.Time) *models.Post {
	now := time.Now()
	return &models.Post{
		ID:          id,
		OwnerID:     owner,
		Content:     "hello " + id,
		Status:      models.PostStatusScheduled,
		ScheduledAt: &at,
		TimeZone:    "UTC",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

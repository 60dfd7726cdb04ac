package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

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
		SecretKey:    testSecret,
		ScheduleSlot: 15 * time.Minute,
		Jobs: config.Jobs{
			PublishTimeout: time.Second,
		},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

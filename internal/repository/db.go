package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/maheshrc27/postscheduler/internal/models"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Open connects to the database and verifies it is reachable. The returned
// handle is meant to be created once at start-up and shared by every
// repository.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates the tables and indexes used by the repositories.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func schema(driver string) []string {
	ts := "TIMESTAMP"
	if driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posts (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL,
			content      TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'draft',
			scheduled_at %[1]s,
			time_zone    TEXT NOT NULL DEFAULT 'UTC',
			created_at   %[1]s NOT NULL,
			updated_at   %[1]s NOT NULL
		)`, ts),
		`CREATE INDEX IF NOT EXISTS idx_posts_owner_status ON posts (owner_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled ON posts (status, scheduled_at)`,
		`CREATE TABLE IF NOT EXISTS post_variants (
			post_id  TEXT NOT NULL,
			platform TEXT NOT NULL,
			body     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (post_id, platform)
		)`,
		`CREATE TABLE IF NOT EXISTS post_media (
			post_id       TEXT NOT NULL,
			url           TEXT NOT NULL,
			kind          TEXT NOT NULL,
			display_order INTEGER NOT NULL,
			PRIMARY KEY (post_id, display_order)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS publish_attempts (
			id            TEXT PRIMARY KEY,
			post_id       TEXT NOT NULL,
			owner_id      TEXT NOT NULL,
			platform      TEXT NOT NULL,
			attempt       INTEGER NOT NULL DEFAULT 1,
			outcome       TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			remote_id     TEXT NOT NULL DEFAULT '',
			attempted_at  %[1]s NOT NULL
		)`, ts),
		`CREATE INDEX IF NOT EXISTS idx_publish_attempts_post ON publish_attempts (post_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS social_accounts (
			owner_id         TEXT NOT NULL,
			platform         TEXT NOT NULL,
			account_id       TEXT NOT NULL DEFAULT '',
			account_name     TEXT NOT NULL DEFAULT '',
			access_token     TEXT NOT NULL,
			refresh_token    TEXT NOT NULL DEFAULT '',
			token_expires_at %[1]s NOT NULL,
			created_at       %[1]s NOT NULL,
			updated_at       %[1]s NOT NULL,
			PRIMARY KEY (owner_id, platform)
		)`, ts),
		`CREATE INDEX IF NOT EXISTS idx_social_accounts_expiry ON social_accounts (token_expires_at)`,
	}
}

func statementBuilder(db *sqlx.DB) sq.StatementBuilderType {
	if db.DriverName() == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// utc normalizes timestamps to the precision postgres keeps.
func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return utc(*t)
}

func storageError(op string, err error) error {
	slog.Info(err.Error(), "op", op)
	return &models.StorageError{Op: op, Err: err}
}

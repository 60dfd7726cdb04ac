package repository

import (
	"context"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postscheduler/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type PublishAttemptRepository interface {
	Create(ctx context.Context, pa *models.PublishAttempt) (string, error)
	ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error)
}

type publishAttemptRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewPublishAttemptRepository(db *sqlx.DB) PublishAttemptRepository {
	return &publishAttemptRepository{db: db, sb: statementBuilder(db)}
}

func (r *publishAttemptRepository) Create(ctx context.Context, pa *models.PublishAttempt) (string, error) {
	if pa.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			slog.Info(err.Error())
			return "", err
		}
		pa.ID = id
	}

	query, args, err := r.sb.Insert("publish_attempts").
		Columns("id", "post_id", "owner_id", "platform", "attempt", "outcome", "error_message", "remote_id", "attempted_at").
		Values(pa.ID, pa.PostID, pa.OwnerID, pa.Platform, pa.Attempt, pa.Outcome, pa.ErrorMessage, pa.RemoteID, utc(pa.AttemptedAt)).
		ToSql()
	if err != nil {
		return "", storageError("create_attempt", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return "", storageError("create_attempt", err)
	}
	return pa.ID, nil
}

func (r *publishAttemptRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	query, args, err := r.sb.Select("id", "post_id", "owner_id", "platform", "attempt", "outcome", "error_message", "remote_id", "attempted_at").
		From("publish_attempts").
		Where(sq.Eq{"post_id": postID}).
		OrderBy("attempted_at ASC", "platform ASC", "attempt ASC").
		ToSql()
	if err != nil {
		return nil, storageError("list_attempts", err)
	}

	attempts := []*models.PublishAttempt{}
	if err := r.db.SelectContext(ctx, &attempts, query, args...); err != nil {
		return nil, storageError("list_attempts", err)
	}
	return attempts, nil
}

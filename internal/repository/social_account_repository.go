package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postscheduler/internal/models"
)

var ErrTokenChanged = errors.New("no rows affected; token was rotated concurrently")

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) error
	Get(ctx context.Context, ownerID string, platform models.Platform) (*models.SocialAccount, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	SetToken(ctx context.Context, ownerID string, platform models.Platform, oldAccessToken string, sa *models.SocialAccount) error
	Remove(ctx context.Context, ownerID string, platform models.Platform) error
}

var socialAccountColumns = []string{
	"owner_id", "platform", "account_id", "account_name", "access_token",
	"refresh_token", "token_expires_at", "created_at", "updated_at",
}

type socialAccountRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewSocialAccountRepository(db *sqlx.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db, sb: statementBuilder(db)}
}

func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) error {
	now := utc(time.Now())
	query, args, err := r.sb.Insert("social_accounts").
		Columns(socialAccountColumns...).
		Values(sa.OwnerID, sa.Platform, sa.AccountID, sa.AccountName, sa.AccessToken,
			sa.RefreshToken, utc(sa.TokenExpiresAt), now, now).
		Suffix(`ON CONFLICT (owner_id, platform) DO UPDATE SET
			account_id = excluded.account_id,
			account_name = excluded.account_name,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expires_at = excluded.token_expires_at,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Get returns nil without an error when the owner has not connected the
// platform.
func (r *socialAccountRepository) Get(ctx context.Context, ownerID string, platform models.Platform) (*models.SocialAccount, error) {
	query, args, err := r.sb.Select(socialAccountColumns...).From("social_accounts").
		Where(sq.Eq{"owner_id": ownerID, "platform": platform}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var sa models.SocialAccount
	if err := r.db.GetContext(ctx, &sa, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.SocialAccount, error) {
	query, args, err := r.sb.Select(socialAccountColumns...).From("social_accounts").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("platform").
		ToSql()
	if err != nil {
		return nil, err
	}

	accounts := []*models.SocialAccount{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// ListExpiring returns accounts whose token expires before the given time,
// including the ones that already expired.
func (r *socialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query, args, err := r.sb.Select(socialAccountColumns...).From("social_accounts").
		Where(sq.Lt{"token_expires_at": utc(before)}).
		Where(sq.NotEq{"refresh_token": ""}).
		OrderBy("token_expires_at").
		ToSql()
	if err != nil {
		return nil, err
	}

	accounts := []*models.SocialAccount{}
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

// SetToken stores refreshed tokens only if the access token is still the one
// the caller refreshed from. Empty fields in sa keep their stored value.
func (r *socialAccountRepository) SetToken(ctx context.Context, ownerID string, platform models.Platform, oldAccessToken string, sa *models.SocialAccount) error {
	update := r.sb.Update("social_accounts").
		Set("access_token", sa.AccessToken).
		Set("updated_at", utc(time.Now())).
		Where(sq.Eq{"owner_id": ownerID, "platform": platform, "access_token": oldAccessToken})
	if sa.RefreshToken != "" {
		update = update.Set("refresh_token", sa.RefreshToken)
	}
	if !sa.TokenExpiresAt.IsZero() {
		update = update.Set("token_expires_at", utc(sa.TokenExpiresAt))
	}

	query, args, err := update.ToSql()
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info(ErrTokenChanged.Error(), "owner_id", ownerID, "platform", platform)
		return ErrTokenChanged
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, ownerID string, platform models.Platform) error {
	query, args, err := r.sb.Delete("social_accounts").
		Where(sq.Eq{"owner_id": ownerID, "platform": platform}).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

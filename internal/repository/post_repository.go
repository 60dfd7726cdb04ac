package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/postscheduler/internal/models"
)

type PostRepository interface {
	Upsert(ctx context.Context, post *models.Post) (bool, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Find(ctx context.Context, ownerID string, statuses []models.Status, orderBy models.OrderBy) ([]*models.Post, error)
	FindDue(ctx context.Context, status models.Status, windowStart, windowEnd time.Time) ([]*models.Post, error)
	Transition(ctx context.Context, id string, from, to models.Status) (bool, error)
	DeleteOlderThan(ctx context.Context, status models.Status, cutoff time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}

var postColumns = []string{"id", "owner_id", "content", "status", "scheduled_at", "time_zone", "created_at", "updated_at"}

// child tables removed together with their post
var postChildTables = []string{"post_variants", "post_media", "publish_attempts"}

type postRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db, sb: statementBuilder(db)}
}

// Upsert inserts the post or replaces the stored one with the same id. The
// update only applies while the stored row belongs to the same owner and is
// not published; false is returned when that guard rejects it.
func (r *postRepository) Upsert(ctx context.Context, post *models.Post) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storageError("upsert", err)
	}
	defer tx.Rollback()

	query, args, err := r.sb.Insert("posts").
		Columns(postColumns...).
		Values(post.ID, post.OwnerID, post.Content, post.Status, nullableTime(post.ScheduledAt),
			post.TimeZone, utc(post.CreatedAt), utc(post.UpdatedAt)).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			status = excluded.status,
			scheduled_at = excluded.scheduled_at,
			time_zone = excluded.time_zone,
			updated_at = excluded.updated_at
		WHERE posts.owner_id = excluded.owner_id AND posts.status <> ?`, models.PostStatusPublished).
		ToSql()
	if err != nil {
		return false, storageError("upsert", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storageError("upsert", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError("upsert", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := r.replaceChildren(ctx, tx, post); err != nil {
		return false, storageError("upsert", err)
	}

	if err := tx.Commit(); err != nil {
		return false, storageError("upsert", err)
	}
	return true, nil
}

func (r *postRepository) replaceChildren(ctx context.Context, tx *sqlx.Tx, post *models.Post) error {
	for _, table := range []string{"post_variants", "post_media"} {
		query, args, err := r.sb.Delete(table).Where(sq.Eq{"post_id": post.ID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if len(post.Variants) > 0 {
		insert := r.sb.Insert("post_variants").Columns("post_id", "platform", "body")
		for _, v := range post.Variants {
			insert = insert.Values(post.ID, v.Platform, v.Body)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert variants: %w", err)
		}
	}

	if len(post.Media) > 0 {
		insert := r.sb.Insert("post_media").Columns("post_id", "url", "kind", "display_order")
		for i, m := range post.Media {
			insert = insert.Values(post.ID, m.URL, m.Kind, i)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert media: %w", err)
		}
	}
	return nil
}

func (r *postRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	query, args, err := r.sb.Select(postColumns...).From("posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, storageError("get", err)
	}

	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, storageError("get", err)
	}

	if err := r.loadChildren(ctx, []*models.Post{&post}); err != nil {
		return nil, storageError("get", err)
	}
	return &post, nil
}

func (r *postRepository) Find(ctx context.Context, ownerID string, statuses []models.Status, orderBy models.OrderBy) ([]*models.Post, error) {
	q := r.sb.Select(postColumns...).From("posts").Where(sq.Eq{"owner_id": ownerID})
	if len(statuses) > 0 {
		q = q.Where(sq.Eq{"status": statuses})
	}

	switch orderBy {
	case models.OrderByScheduled:
		q = q.OrderBy("scheduled_at IS NULL", "scheduled_at ASC", "id ASC")
	default:
		q = q.OrderBy("created_at DESC", "id ASC")
	}

	return r.selectPosts(ctx, "find", q)
}

// FindDue returns posts in status whose scheduled_at lies in
// [windowStart, windowEnd], across all owners.
func (r *postRepository) FindDue(ctx context.Context, status models.Status, windowStart, windowEnd time.Time) ([]*models.Post, error) {
	q := r.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"status": status}).
		Where(sq.GtOrEq{"scheduled_at": utc(windowStart)}).
		Where(sq.LtOrEq{"scheduled_at": utc(windowEnd)}).
		OrderBy("scheduled_at ASC", "id ASC")

	return r.selectPosts(ctx, "find_due", q)
}

func (r *postRepository) selectPosts(ctx context.Context, op string, q sq.SelectBuilder) ([]*models.Post, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, storageError(op, err)
	}

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, storageError(op, err)
	}

	if err := r.loadChildren(ctx, posts); err != nil {
		return nil, storageError(op, err)
	}
	return posts, nil
}

func (r *postRepository) loadChildren(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[string]*models.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query, args, err := r.sb.Select("post_id", "platform", "body").From("post_variants").
		Where(sq.Eq{"post_id": ids}).OrderBy("post_id", "platform").ToSql()
	if err != nil {
		return err
	}
	var variants []models.PlatformContent
	if err := r.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	for _, v := range variants {
		p := byID[v.PostID]
		p.Variants = append(p.Variants, v)
	}

	query, args, err = r.sb.Select("post_id", "url", "kind", "display_order").From("post_media").
		Where(sq.Eq{"post_id": ids}).OrderBy("post_id", "display_order").ToSql()
	if err != nil {
		return err
	}
	var media []models.MediaRef
	if err := r.db.SelectContext(ctx, &media, query, args...); err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	for _, m := range media {
		p := byID[m.PostID]
		p.Media = append(p.Media, m)
	}
	return nil
}

// Transition moves the post from one status to another only if it is
// currently in from. It is the compare-and-swap every concurrent writer of
// status relies on.
func (r *postRepository) Transition(ctx context.Context, id string, from, to models.Status) (bool, error) {
	if !models.CanTransition(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}

	query, args, err := r.sb.Update("posts").
		Set("status", to).
		Set("updated_at", utc(time.Now())).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return false, storageError("transition", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, storageError("transition", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageError("transition", err)
	}
	return affected == 1, nil
}

// DeleteOlderThan removes posts in status scheduled strictly before cutoff.
func (r *postRepository) DeleteOlderThan(ctx context.Context, status models.Status, cutoff time.Time) (int64, error) {
	cutoff = utc(cutoff)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, storageError("delete_older_than", err)
	}
	defer tx.Rollback()

	for _, table := range postChildTables {
		query, args, err := r.sb.Delete(table).
			Where(sq.Expr("post_id IN (SELECT id FROM posts WHERE status = ? AND scheduled_at < ?)", status, cutoff)).
			ToSql()
		if err != nil {
			return 0, storageError("delete_older_than", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, storageError("delete_older_than", err)
		}
	}

	query, args, err := r.sb.Delete("posts").
		Where(sq.Eq{"status": status}).
		Where(sq.Lt{"scheduled_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, storageError("delete_older_than", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storageError("delete_older_than", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("delete_older_than", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError("delete_older_than", err)
	}
	return deleted, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageError("delete", err)
	}
	defer tx.Rollback()

	deletes := []sq.DeleteBuilder{r.sb.Delete("posts").Where(sq.Eq{"id": id})}
	for _, table := range postChildTables {
		deletes = append(deletes, r.sb.Delete(table).Where(sq.Eq{"post_id": id}))
	}

	for _, d := range deletes {
		query, args, err := d.ToSql()
		if err != nil {
			return storageError("delete", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storageError("delete", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageError("delete", err)
	}
	return nil
}

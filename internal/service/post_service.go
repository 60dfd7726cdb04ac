package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// localTimeLayout is the format of a schedule time picked in the post's own
// time zone.
const localTimeLayout = "2006-01-02T15:04"

type PostService interface {
	// Save reports whether the post was created rather than updated.
	Save(ctx context.Context, ownerID string, in *transfer.PostUpsert) (*models.Post, bool, error)
	Get(ctx context.Context, ownerID, postID string) (*models.Post, error)
	List(ctx context.Context, ownerID string, status models.Status, order models.OrderBy) ([]*models.Post, error)
	Remove(ctx context.Context, ownerID, postID string) error
	Attempts(ctx context.Context, ownerID, postID string) ([]*models.PublishAttempt, error)
}

type postService struct {
	pr        repository.PostRepository
	ar        repository.PublishAttemptRepository
	media     MediaService
	publicURL string
	slot      time.Duration
	now       func() time.Time
}

// NewPostService wires the service. media may be nil, in which case media
// references are not checked against the bucket.
func NewPostService(cfg config.Config, pr repository.PostRepository, ar repository.PublishAttemptRepository, media MediaService) PostService {
	return &postService{
		pr:        pr,
		ar:        ar,
		media:     media,
		publicURL: strings.TrimRight(cfg.R2.PublicURL, "/"),
		slot:      cfg.ScheduleSlot,
		now:       time.Now,
	}
}

// Save creates the post or replaces the caller's existing post with the same
// id.
func (s *postService) Save(ctx context.Context, ownerID string, in *transfer.PostUpsert) (*models.Post, bool, error) {
	if ownerID == "" {
		return nil, false, &models.ValidationError{Field: "owner_id", Message: "is required"}
	}
	if in == nil {
		return nil, false, &models.ValidationError{Field: "post", Message: "is required"}
	}

	post, err := s.buildPost(ownerID, in)
	if err != nil {
		slog.Info(err.Error(), "owner_id", ownerID)
		return nil, false, err
	}

	now := s.now()
	post.CreatedAt, post.UpdatedAt = now, now

	created := true
	if post.ID == "" {
		post.ID, err = gonanoid.New()
		if err != nil {
			return nil, false, err
		}
	} else {
		existing, err := s.pr.Get(ctx, post.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return nil, false, err
		case existing.OwnerID != ownerID:
			return nil, false, models.ErrNotFound
		case existing.Status != post.Status && !models.CanTransition(existing.Status, post.Status):
			return nil, false, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, existing.Status, post.Status)
		case existing.Status == models.PostStatusPublished:
			return nil, false, fmt.Errorf("%w: post is already published", models.ErrInvalidTransition)
		default:
			post.CreatedAt = existing.CreatedAt
			created = false
		}
	}

	if post.Status == models.PostStatusScheduled {
		if err := s.validateSchedulable(post, now); err != nil {
			slog.Info(err.Error(), "owner_id", ownerID, "post_id", post.ID)
			return nil, false, err
		}
		if err := s.checkMedia(ctx, post); err != nil {
			slog.Info(err.Error(), "owner_id", ownerID, "post_id", post.ID)
			return nil, false, err
		}
	}

	ok, err := s.pr.Upsert(ctx, post)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		// published or taken over between the read and the write
		return nil, false, fmt.Errorf("%w: post changed concurrently", models.ErrInvalidTransition)
	}
	return post, created, nil
}

// checkMedia confirms that media served from our bucket was actually stored.
// Links to other hosts are taken as given.
func (s *postService) checkMedia(ctx context.Context, post *models.Post) error {
	if s.media == nil || s.publicURL == "" {
		return nil
	}

	for _, m := range post.Media {
		key, ok := strings.CutPrefix(m.URL, s.publicURL+"/")
		if !ok {
			continue
		}
		exists, err := s.media.Exists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			return &models.ValidationError{Field: "media", Message: "no stored object for " + m.URL}
		}
	}
	return nil
}

func (s *postService) buildPost(ownerID string, in *transfer.PostUpsert) (*models.Post, error) {
	tz := strings.TrimSpace(in.TimeZone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &models.ValidationError{Field: "time_zone", Message: "unknown time zone " + tz}
	}

	var scheduledAt *time.Time
	if raw := strings.TrimSpace(in.ScheduledAt); raw != "" {
		at, err := parseScheduleTime(raw, loc)
		if err != nil {
			return nil, &models.ValidationError{Field: "scheduled_at", Message: "expected RFC 3339 or " + localTimeLayout}
		}
		scheduledAt = &at
	}

	status := models.Status(in.Status)
	switch {
	case status == "" && scheduledAt != nil:
		status = models.PostStatusScheduled
	case status == "":
		status = models.PostStatusDraft
	case status == models.PostStatusPublished:
		return nil, &models.ValidationError{Field: "status", Message: "posts are published by the scheduler"}
	case !status.Valid():
		return nil, &models.ValidationError{Field: "status", Message: "unknown status " + in.Status}
	}

	post := &models.Post{
		ID:          strings.TrimSpace(in.ID),
		OwnerID:     ownerID,
		Content:     in.Content,
		Status:      status,
		ScheduledAt: scheduledAt,
		TimeZone:    tz,
	}

	seen := make(map[models.Platform]bool, len(in.Variants))
	for _, v := range in.Variants {
		platform := models.Platform(v.Platform)
		if !platform.Valid() {
			return nil, &models.ValidationError{Field: "variants", Message: "unsupported platform " + v.Platform}
		}
		if seen[platform] {
			return nil, &models.ValidationError{Field: "variants", Message: "duplicate platform " + v.Platform}
		}
		seen[platform] = true
		post.Variants = append(post.Variants, models.PlatformContent{Platform: platform, Body: v.Body})
	}

	for i, m := range in.Media {
		if strings.TrimSpace(m.URL) == "" {
			return nil, &models.ValidationError{Field: "media", Message: "url is required"}
		}
		if m.Kind != models.MediaKindImage && m.Kind != models.MediaKindVideo {
			return nil, &models.ValidationError{Field: "media", Message: "kind must be image or video"}
		}
		post.Media = append(post.Media, models.MediaRef{URL: m.URL, Kind: m.Kind, DisplayOrder: i})
	}
	return post, nil
}

func (s *postService) validateSchedulable(post *models.Post, now time.Time) error {
	if !post.HasContent() {
		return &models.ValidationError{Field: "content", Message: "every target platform needs a body or the post needs media"}
	}
	if post.ScheduledAt == nil {
		return &models.ValidationError{Field: "scheduled_at", Message: "is required to schedule a post"}
	}
	if !post.ScheduledAt.After(now) {
		return &models.ValidationError{Field: "scheduled_at", Message: "must be in the future"}
	}
	if s.slot > 0 && !post.ScheduledAt.Truncate(s.slot).Equal(*post.ScheduledAt) {
		return &models.ValidationError{Field: "scheduled_at", Message: fmt.Sprintf("must fall on a %s boundary", s.slot)}
	}
	return nil
}

func parseScheduleTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(localTimeLayout, raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *postService) Get(ctx context.Context, ownerID, postID string) (*models.Post, error) {
	post, err := s.pr.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return post, nil
}

func (s *postService) List(ctx context.Context, ownerID string, status models.Status, order models.OrderBy) ([]*models.Post, error) {
	var statuses []models.Status
	if status != "" {
		if !status.Valid() {
			return nil, &models.ValidationError{Field: "status", Message: "unknown status " + string(status)}
		}
		statuses = append(statuses, status)
	}

	switch order {
	case "":
		order = models.OrderByCreated
	case models.OrderByCreated, models.OrderByScheduled:
	default:
		return nil, &models.ValidationError{Field: "order", Message: "must be created or scheduled"}
	}

	return s.pr.Find(ctx, ownerID, statuses, order)
}

func (s *postService) Remove(ctx context.Context, ownerID, postID string) error {
	if _, err := s.Get(ctx, ownerID, postID); err != nil {
		return err
	}
	return s.pr.Delete(ctx, postID)
}

// Attempts lists every recorded platform outcome of the caller's post.
func (s *postService) Attempts(ctx context.Context, ownerID, postID string) ([]*models.PublishAttempt, error) {
	if _, err := s.Get(ctx, ownerID, postID); err != nil {
		return nil, err
	}
	return s.ar.ListByPostID(ctx, postID)
}

package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPostService(t *testing.T, now time.Time) (*postService, repository.PostRepository) {
	t.Helper()
	db := setupTestDB(t)
	pr := repository.NewPostRepository(db)
	svc := NewPostService(testConfig(), pr, repository.NewPublishAttemptRepository(db), nil).(*postService)
	svc.now = fixedClock(now)
	return svc, pr
}

func TestPostService_SaveDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 7, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)
	ctx := context.Background()

	draft, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{})
	require.NoError(t, err)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, models.PostStatusDraft, draft.Status)
	assert.Equal(t, "UTC", draft.TimeZone)

	scheduled, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{
		Content:     "hello",
		ScheduledAt: "2026-03-01T10:30:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, scheduled.Status)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), *scheduled.ScheduledAt)
}

func TestPostService_LocalScheduleTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)

	post, _, err := svc.Save(context.Background(), "u1", &transfer.PostUpsert{
		Content:     "bonjour",
		ScheduledAt: "2026-03-01T15:45",
		TimeZone:    "Europe/Paris",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 45, 0, 0, time.UTC), *post.ScheduledAt)

	view := transfer.NewPostView(post)
	assert.Equal(t, "2026-03-01T15:45:00+01:00", view.ScheduledAtLocal)
}

func TestPostService_SaveValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)

	tests := []struct {
		name  string
		in    transfer.PostUpsert
		field string
	}{
		{"publish directly", transfer.PostUpsert{Content: "x", Status: "published"}, "status"},
		{"unknown status", transfer.PostUpsert{Status: "archived"}, "status"},
		{"bad zone", transfer.PostUpsert{TimeZone: "Mars/Olympus"}, "time_zone"},
		{"bad time", transfer.PostUpsert{ScheduledAt: "tomorrow"}, "scheduled_at"},
		{"empty content", transfer.PostUpsert{ScheduledAt: "2026-03-01T10:00:00Z"}, "content"},
		{"past", transfer.PostUpsert{Content: "x", ScheduledAt: "2026-03-01T08:45:00Z"}, "scheduled_at"},
		{"now", transfer.PostUpsert{Content: "x", ScheduledAt: "2026-03-01T09:00:00Z"}, "scheduled_at"},
		{"off slot", transfer.PostUpsert{Content: "x", ScheduledAt: "2026-03-01T10:07:00Z"}, "scheduled_at"},
		{"no time", transfer.PostUpsert{Content: "x", Status: "scheduled"}, "scheduled_at"},
		{"bad platform", transfer.PostUpsert{Variants: []transfer.VariantInput{{Platform: "myspace"}}}, "variants"},
		{"duplicate platform", transfer.PostUpsert{Variants: []transfer.VariantInput{
			{Platform: "twitter", Body: "a"}, {Platform: "twitter", Body: "b"},
		}}, "variants"},
		{"bad media", transfer.PostUpsert{Media: []models.MediaRef{{URL: "https://x", Kind: "audio"}}}, "media"},
		{"missing variant body", transfer.PostUpsert{
			ScheduledAt: "2026-03-01T10:00:00Z",
			Variants:    []transfer.VariantInput{{Platform: "twitter", Body: "tweet"}, {Platform: "linkedin"}},
		}, "content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Save(context.Background(), "u1", &tt.in)
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPostService_SaveExisting(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, pr := newTestPostService(t, now)
	ctx := context.Background()

	post, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "v1", ScheduledAt: "2026-03-01T12:00:00Z"})
	require.NoError(t, err)

	t.Run("reschedule keeps id and creation time", func(t *testing.T) {
		svc.now = fixedClock(now.Add(time.Minute))
		updated, created, err := svc.Save(ctx, "u1", &transfer.PostUpsert{ID: post.ID, Content: "v2", ScheduledAt: "2026-03-01T12:15:00Z"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, post.ID, updated.ID)
		assert.True(t, post.CreatedAt.Equal(updated.CreatedAt))

		all, err := svc.List(ctx, "u1", "", "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "v2", all[0].Content)
	})

	t.Run("back to draft", func(t *testing.T) {
		updated, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{ID: post.ID, Content: "v3", Status: "draft"})
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusDraft, updated.Status)
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		_, _, err := svc.Save(ctx, "u2", &transfer.PostUpsert{ID: post.ID, Content: "mine"})
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = svc.Get(ctx, "u2", post.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.ErrorIs(t, svc.Remove(ctx, "u2", post.ID), models.ErrNotFound)
	})

	t.Run("published is frozen", func(t *testing.T) {
		_, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{ID: post.ID, Content: "v4", ScheduledAt: "2026-03-01T12:00:00Z"})
		require.NoError(t, err)
		ok, err := pr.Transition(ctx, post.ID, models.PostStatusScheduled, models.PostStatusPublished)
		require.NoError(t, err)
		require.True(t, ok)

		_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{ID: post.ID, Content: "v5", ScheduledAt: "2026-03-01T12:00:00Z"})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{ID: post.ID, Status: "draft"})
		assert.ErrorIs(t, err, models.ErrInvalidTransition)

		require.NoError(t, svc.Remove(ctx, "u1", post.ID))
		_, err = svc.Get(ctx, "u1", post.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestPostService_List(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)
	ctx := context.Background()

	_, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "draft"})
	require.NoError(t, err)
	_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "later", ScheduledAt: "2026-03-02T09:00:00Z"})
	require.NoError(t, err)
	_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "sooner", ScheduledAt: "2026-03-01T09:15:00Z"})
	require.NoError(t, err)

	scheduled, err := svc.List(ctx, "u1", models.PostStatusScheduled, models.OrderByScheduled)
	require.NoError(t, err)
	require.Len(t, scheduled, 2)
	assert.Equal(t, "sooner", scheduled[0].Content)

	_, err = svc.List(ctx, "u1", "archived", "")
	var vErr *models.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.List(ctx, "u1", "", "random")
	assert.ErrorAs(t, err, &vErr)
}

func TestPostService_SaveReportsCreation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)
	ctx := context.Background()

	_, created, err := svc.Save(ctx, "u1", &transfer.PostUpsert{ID: "client-id", Content: "first"})
	require.NoError(t, err)
	assert.True(t, created, "a caller-chosen id that is not stored yet is a create")

	_, created, err = svc.Save(ctx, "u1", &transfer.PostUpsert{ID: "client-id", Content: "second"})
	require.NoError(t, err)
	assert.False(t, created)

	_, created, err = svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "generated id"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestPostService_ChecksStoredMedia(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	db := setupTestDB(t)

	store := &mockObjectStore{}
	store.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Prefix == "u1/kept.png"
	})).Return(&s3.ListObjectsV2Output{Contents: []types.Object{{}}}, nil)
	store.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{}, nil)

	cfg := mediaConfig()
	svc := NewPostService(cfg, repository.NewPostRepository(db), repository.NewPublishAttemptRepository(db),
		NewMediaService(cfg, store)).(*postService)
	svc.now = fixedClock(now)
	ctx := context.Background()

	_, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{
		ScheduledAt: "2026-03-01T10:00:00Z",
		Media: []models.MediaRef{
			{URL: "https://cdn.example.com/u1/kept.png", Kind: models.MediaKindImage},
			{URL: "https://elsewhere.example.org/clip.mp4", Kind: models.MediaKindVideo},
		},
	})
	require.NoError(t, err)

	_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{
		ScheduledAt: "2026-03-01T10:00:00Z",
		Media:       []models.MediaRef{{URL: "https://cdn.example.com/u1/lost.png", Kind: models.MediaKindImage}},
	})
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "media", vErr.Field)

	// drafts are not checked until they are scheduled
	_, _, err = svc.Save(ctx, "u1", &transfer.PostUpsert{
		Media: []models.MediaRef{{URL: "https://cdn.example.com/u1/lost.png", Kind: models.MediaKindImage}},
	})
	require.NoError(t, err)
}

func TestPostService_Attempts(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestPostService(t, now)
	ctx := context.Background()

	post, _, err := svc.Save(ctx, "u1", &transfer.PostUpsert{Content: "hello", ScheduledAt: "2026-03-01T10:00:00Z"})
	require.NoError(t, err)

	none, err := svc.Attempts(ctx, "u1", post.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ar.Create(ctx, &models.PublishAttempt{
		PostID: post.ID, OwnerID: "u1", Platform: models.PlatformTwitter, Attempt: 1,
		Outcome: models.OutcomeFailed, ErrorMessage: "503", AttemptedAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	attempts, err := svc.Attempts(ctx, "u1", post.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, models.OutcomeFailed, attempts[0].Outcome)

	_, err = svc.Attempts(ctx, "u2", post.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

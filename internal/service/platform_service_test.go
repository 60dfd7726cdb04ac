package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformService(t *testing.T) {
	sa := repository.NewSocialAccountRepository(setupTestDB(t))
	svc := NewPlatformService(testConfig(), sa)
	ctx := context.Background()

	connected, err := svc.IsConnected(ctx, "u1", models.PlatformTwitter)
	require.NoError(t, err)
	assert.False(t, connected)

	var vErr *models.ValidationError
	assert.ErrorAs(t, svc.Connect(ctx, "u1", "myspace", &ConnectRequest{AccessToken: "x"}), &vErr)
	assert.ErrorAs(t, svc.Connect(ctx, "u1", models.PlatformTwitter, &ConnectRequest{}), &vErr)

	require.NoError(t, svc.Connect(ctx, "u1", models.PlatformTwitter, &ConnectRequest{
		AccountID:    "tw-1",
		AccessToken:  "plain-access",
		RefreshToken: "plain-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	stored, err := sa.Get(ctx, "u1", models.PlatformTwitter)
	require.NoError(t, err)
	assert.NotEqual(t, "plain-access", stored.AccessToken, "tokens are encrypted at rest")
	plain, err := utils.Decrypt(stored.AccessToken, []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "plain-access", plain)

	connected, err = svc.IsConnected(ctx, "u1", models.PlatformTwitter)
	require.NoError(t, err)
	assert.True(t, connected)

	accounts, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, svc.Disconnect(ctx, "u1", models.PlatformTwitter))
	assert.ErrorIs(t, svc.Disconnect(ctx, "u1", models.PlatformTwitter), models.ErrNotConnected)
}

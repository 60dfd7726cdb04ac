package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/pkg/utils"
	"golang.org/x/oauth2"
)

var ErrTokenExpired = errors.New("access token expired and cannot be refreshed")

// TokenService hands out decrypted access tokens and keeps the stored ones
// fresh.
type TokenService interface {
	GetValidToken(ctx context.Context, ownerID string, platform models.Platform) (*models.AccessToken, error)
	RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error)
}

type tokenService struct {
	cfg        config.Config
	sa         repository.SocialAccountRepository
	httpClient *http.Client
	now        func() time.Time
}

func NewTokenService(cfg config.Config, sa repository.SocialAccountRepository) TokenService {
	return &tokenService{
		cfg:        cfg,
		sa:         sa,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
}

func (s *tokenService) oauth2Config(platform models.Platform) (*oauth2.Config, error) {
	var p config.Platform
	switch platform {
	case models.PlatformTwitter:
		p = s.cfg.Twitter
	case models.PlatformLinkedIn:
		p = s.cfg.LinkedIn
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}

	return &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.TokenURL},
	}, nil
}

func (s *tokenService) GetValidToken(ctx context.Context, ownerID string, platform models.Platform) (*models.AccessToken, error) {
	acc, err := s.sa.Get(ctx, ownerID, platform)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, &models.NotConnectedError{OwnerID: ownerID, Platform: platform}
	}

	if acc.TokenExpiresAt.Before(s.now().Add(refreshLeeway)) {
		if acc.RefreshToken == "" {
			return nil, ErrTokenExpired
		}
		acc, err = s.RefreshToken(ctx, acc)
		if err != nil {
			return nil, err
		}
	}

	token, err := utils.Decrypt(acc.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	return &models.AccessToken{
		Token:     token,
		AccountID: acc.AccountID,
		ExpiresAt: acc.TokenExpiresAt,
	}, nil
}

// RefreshToken exchanges the stored refresh token and persists the result.
// When another caller rotated the token first, the stored account is
// returned instead.
func (s *tokenService) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	conf, err := s.oauth2Config(acc.Platform)
	if err != nil {
		return nil, err
	}

	refreshToken, err := utils.Decrypt(acc.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error(), "owner_id", acc.OwnerID, "platform", acc.Platform)
		return nil, err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	rotated := models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: GetExpiresAt(s.now(), token.Expiry),
	}

	err = s.sa.SetToken(ctx, acc.OwnerID, acc.Platform, acc.AccessToken, &rotated)
	if errors.Is(err, repository.ErrTokenChanged) {
		current, err := s.sa.Get(ctx, acc.OwnerID, acc.Platform)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, &models.NotConnectedError{OwnerID: acc.OwnerID, Platform: acc.Platform}
		}
		return current, nil
	}
	if err != nil {
		return nil, err
	}

	updated := *acc
	updated.AccessToken = rotated.AccessToken
	updated.RefreshToken = rotated.RefreshToken
	updated.TokenExpiresAt = rotated.TokenExpiresAt
	return &updated, nil
}

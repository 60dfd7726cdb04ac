package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/maheshrc27/postscheduler/internal/repository"
	"github.com/maheshrc27/postscheduler/pkg/utils"
)

// ConnectRequest carries the plaintext credentials obtained from a
// platform's authorization flow.
type ConnectRequest struct {
	AccountID    string    `json:"account_id"`
	AccountName  string    `json:"account_name"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type PlatformService interface {
	Connect(ctx context.Context, ownerID string, platform models.Platform, req *ConnectRequest) error
	List(ctx context.Context, ownerID string) ([]*models.SocialAccount, error)
	IsConnected(ctx context.Context, ownerID string, platform models.Platform) (bool, error)
	Disconnect(ctx context.Context, ownerID string, platform models.Platform) error
}

type platformService struct {
	cfg config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

func (s *platformService) Connect(ctx context.Context, ownerID string, platform models.Platform, req *ConnectRequest) error {
	if !platform.Valid() {
		return &models.ValidationError{Field: "platform", Message: "unsupported platform"}
	}
	if req == nil || req.AccessToken == "" {
		return &models.ValidationError{Field: "access_token", Message: "is required"}
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(req.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	var encryptedRefreshToken string
	if req.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(req.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	return s.sa.Upsert(ctx, &models.SocialAccount{
		OwnerID:        ownerID,
		Platform:       platform,
		AccountID:      req.AccountID,
		AccountName:    req.AccountName,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: GetExpiresAt(time.Now(), req.ExpiresAt),
	})
}

func (s *platformService) List(ctx context.Context, ownerID string) ([]*models.SocialAccount, error) {
	if ownerID == "" {
		err := errors.New("owner id is not valid")
		slog.Info(err.Error())
		return nil, err
	}
	return s.sa.ListByOwner(ctx, ownerID)
}

func (s *platformService) IsConnected(ctx context.Context, ownerID string, platform models.Platform) (bool, error) {
	if !platform.Valid() {
		return false, &models.ValidationError{Field: "platform", Message: "unsupported platform"}
	}

	acc, err := s.sa.Get(ctx, ownerID, platform)
	if err != nil {
		return false, err
	}
	return acc != nil, nil
}

func (s *platformService) Disconnect(ctx context.Context, ownerID string, platform models.Platform) error {
	connected, err := s.IsConnected(ctx, ownerID, platform)
	if err != nil {
		return err
	}
	if !connected {
		return &models.NotConnectedError{OwnerID: ownerID, Platform: platform}
	}
	return s.sa.Remove(ctx, ownerID, platform)
}

package service

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/maheshrc27/postscheduler/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) GetValidToken(ctx context.Context, ownerID string, platform models.Platform) (*models.AccessToken, error) {
	args := m.Called(ctx, ownerID, platform)
	token, _ := args.Get(0).(*models.AccessToken)
	return token, args.Error(1)
}

func (m *mockTokenService) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.SocialAccount, error) {
	args := m.Called(ctx, acc)
	updated, _ := args.Get(0).(*models.SocialAccount)
	return updated, args.Error(1)
}

type mockAttemptRepository struct{ mock.Mock }

func (m *mockAttemptRepository) Create(ctx context.Context, pa *models.PublishAttempt) (string, error) {
	args := m.Called(ctx, pa)
	return args.String(0), args.Error(1)
}

func (m *mockAttemptRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	args := m.Called(ctx, postID)
	attempts, _ := args.Get(0).([]*models.PublishAttempt)
	return attempts, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
	platform models.Platform
}

func (m *mockPublisher) Platform() models.Platform { return m.platform }

func (m *mockPublisher) Publish(ctx context.Context, token *models.AccessToken, text string, media []models.MediaRef) (string, error) {
	args := m.Called(ctx, token, text, media)
	return args.String(0), args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockObjectStore) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

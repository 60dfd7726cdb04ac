package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/postscheduler/configs"
	"github.com/maheshrc27/postscheduler/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var allowedMediaTypes = map[string]models.MediaKind{
	"jpg":  models.MediaKindImage,
	"png":  models.MediaKindImage,
	"gif":  models.MediaKindImage,
	"webp": models.MediaKindImage,
	"mp4":  models.MediaKindVideo,
	"mov":  models.MediaKindVideo,
}

// ObjectStore is the subset of the S3 API used for media.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type MediaService interface {
	Store(ctx context.Context, blob []byte, pathHint string) (*models.MediaRef, error)
	Exists(ctx context.Context, prefix string) (bool, error)
}

type mediaService struct {
	cfg   config.R2
	store ObjectStore
}

func NewMediaService(cfg config.Config, store ObjectStore) MediaService {
	return &mediaService{cfg: cfg.R2, store: store}
}

// NewR2Client builds an S3 client for the Cloudflare R2 account in cfg.
func NewR2Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID))
	}), nil
}

func (s *mediaService) Store(ctx context.Context, blob []byte, pathHint string) (*models.MediaRef, error) {
	if len(blob) == 0 {
		return nil, &models.ValidationError{Field: "file", Message: "is empty"}
	}

	kind, err := filetype.Match(blob)
	if err != nil || kind == filetype.Unknown {
		return nil, &models.ValidationError{Field: "file", Message: "unrecognized file type"}
	}
	mediaKind, ok := allowedMediaTypes[kind.Extension]
	if !ok {
		return nil, &models.ValidationError{Field: "file", Message: fmt.Sprintf("file type %s is not allowed", kind.Extension)}
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := path.Join(strings.Trim(pathHint, "/"), id+"."+kind.Extension)

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(blob),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error(), "key", key)
		return nil, err
	}

	return &models.MediaRef{
		URL:  strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key,
		Kind: mediaKind,
	}, nil
}

func (s *mediaService) Exists(ctx context.Context, prefix string) (bool, error) {
	if prefix == "" {
		return false, errors.New("prefix is empty")
	}

	out, err := s.store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.BucketName),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return len(out.Contents) > 0, nil
}

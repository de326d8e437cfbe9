package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/skolahq/skola/pkg/config"
	"github.com/skolahq/skola/pkg/interfaces"
)

// S3MediaStore hands out presigned S3 URLs for media uploads and downloads.
// It implements interfaces.MediaStore.
type S3MediaStore struct {
	presign *s3.PresignClient
	bucket  string
	expiry  func(*s3.PresignOptions)
	logger  interfaces.Logger
}

// NewS3MediaStore creates a media store backed by S3 or an S3-compatible
// endpoint (MinIO in development).
func NewS3MediaStore(ctx context.Context, cfg config.StorageConfig, logger interfaces.Logger) (*S3MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStore{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  s3.WithPresignExpires(cfg.PresignedExpiry),
		logger:  logger,
	}, nil
}

// PresignUpload returns a URL the client can PUT the object to.
func (s *S3MediaStore) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, input, s.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}

	s.logger.Debug("presigned upload", interfaces.String("key", key))
	return req.URL, nil
}

// PresignDownload returns a URL the client can GET the object from.
func (s *S3MediaStore) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s.expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return req.URL, nil
}

var _ interfaces.MediaStore = (*S3MediaStore)(nil)

package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Jayme2002/docusave/internal/config"
)

// IS3Storage defines the interface for S3 operations on the archive bucket.
type IS3Storage interface {
	UploadObject(ctx context.Context, key, contentType string, data []byte) error
	GeneratePresignedGetURL(ctx context.Context, key string) (string, error)
	ArchiveKey(templateID, kind, ext string) string
	ObjectURL(key string) string
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service.
func NewS3Storage(cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Static credentials from config for simplicity; prefer IAM roles in production.
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	presignClient := s3.NewPresignClient(s3Client)

	return &s3Storage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: presignClient,
	}, nil
}

// ArchiveKey builds an object key for an archived template asset.
// Example: archive/<templateID>/pdf/<uuid>.pdf
func (s *s3Storage) ArchiveKey(templateID, kind, ext string) string {
	return fmt.Sprintf("archive/%s/%s/%s.%s", templateID, kind, uuid.NewString(), strings.TrimPrefix(ext, "."))
}

// UploadObject writes an object to the archive bucket.
func (s *s3Storage) UploadObject(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to S3: %w", key, err)
	}
	return nil
}

// GeneratePresignedGetURL creates a pre-signed URL for downloading an archived object.
func (s *s3Storage) GeneratePresignedGetURL(ctx context.Context, key string) (string, error) {
	expiration := 15 * time.Minute

	presignedReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET URL for key %s: %w", key, err)
	}
	return presignedReq.URL, nil
}

// ObjectURL returns the public URL of an object, using the configured base
// URL when set, otherwise the standard virtual-hosted S3 form.
func (s *s3Storage) ObjectURL(key string) string {
	if s.cfg.ArchiveBaseS3URL != "" {
		return strings.TrimSuffix(s.cfg.ArchiveBaseS3URL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.AwsS3Bucket, s.cfg.AwsRegion, key)
}

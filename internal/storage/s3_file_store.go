// Package storage removes uploaded dossier files from object storage.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stwalsh4118/dossier/api/internal/config"
)

// ErrInvalidObject is returned for an empty bucket or key.
var ErrInvalidObject = errors.New("bucket and path are required")

// FileStore deletes stored files by bucket and object path.
type FileStore interface {
	Delete(ctx context.Context, bucket, path string) error
}

// objectDeleter is the slice of the S3 client the store uses.
type objectDeleter interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3FileStore is a FileStore backed by S3 or an S3-compatible service.
type S3FileStore struct {
	client objectDeleter
}

// NewS3FileStore builds a client from cfg. A custom endpoint and static
// credentials are used when configured (MinIO, LocalStack, Supabase storage).
func NewS3FileStore(ctx context.Context, cfg config.StorageConfig) (*S3FileStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3FileStore{client: client}, nil
}

// Delete removes the object at path inside bucket. S3 treats deleting a
// missing key as success.
func (s *S3FileStore) Delete(ctx context.Context, bucket, path string) error {
	if bucket == "" || path == "" {
		return ErrInvalidObject
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, path, err)
	}
	return nil
}

var _ FileStore = (*S3FileStore)(nil)

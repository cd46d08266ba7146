package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps blobs in one S3 bucket. References have the form s3://bucket/key.
type S3Store struct {
	client s3API
	bucket string
	newID  func() string
}

// NewS3Store wraps an S3 client (typically *s3.Client).
func NewS3Store(client s3API, bucket string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &S3Store{client: client, bucket: bucket, newID: uuid.NewString}, nil
}

// Store uploads data under the key derived from loc.
func (s *S3Store) Store(ctx context.Context, data []byte, loc Location) (string, error) {
	key, err := ObjectKey(loc, s.newID())
	if err != nil {
		return "", err
	}

	contentType := loc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob to S3: %w", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Int("size", len(data)).Msg("Blob uploaded to S3")
	return "s3://" + s.bucket + "/" + key, nil
}

// Open downloads the object behind ref.
func (s *S3Store) Open(ctx context.Context, ref string) ([]byte, error) {
	key, err := s.keyFromRef(ref)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to download blob from S3: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes the object behind ref.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFromRef(ref)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("failed to delete blob from S3: %w", err)
	}
	return nil
}

func (s *S3Store) keyFromRef(ref string) (string, error) {
	prefix := "s3://" + s.bucket + "/"
	if !strings.HasPrefix(ref, prefix) || len(ref) == len(prefix) {
		return "", fmt.Errorf("%w: reference %q is not in bucket %s", ErrNotFound, ref, s.bucket)
	}
	return strings.TrimPrefix(ref, prefix), nil
}

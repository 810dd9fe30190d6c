// Package storage uploads post images to S3 and returns durable URLs.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Uploader stores a file and returns its durable URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// S3Store uploads files to a single S3 bucket.
type S3Store struct {
	bucket   string
	uploader *s3manager.Uploader
}

// NewS3Store creates an uploader for the given region and bucket.
func NewS3Store(region, bucket string) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	return &S3Store{
		bucket:   bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

// Upload writes the object and returns its location URL.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %q to bucket %q: %w", key, s.bucket, err)
	}
	return out.Location, nil
}

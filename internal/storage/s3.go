package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Fetcher retrieves source videos from S3-compatible object storage
// (spec.md §6 "Source retrieval"). It's the mirror image of the
// teacher's upload-side S3Uploader: GetObject instead of PutObject.
type S3Fetcher struct {
	client *s3.Client
	bucket string
}

// NewS3Fetcher creates a fetcher against bucket in region. endpoint, when
// non-empty, overrides the default AWS endpoint resolution — needed for
// S3-compatible stores that aren't AWS itself.
func NewS3Fetcher(ctx context.Context, region, bucket, endpoint string) (*S3Fetcher, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = endpoint != ""
	})

	return &S3Fetcher{client: client, bucket: bucket}, nil
}

// Fetch downloads sourceKey to a local temp file and returns its path.
// The caller must invoke cleanup once done with the file.
func (f *S3Fetcher) Fetch(ctx context.Context, sourceKey string) (string, func(), error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(sourceKey),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch %q from S3: %w", sourceKey, err)
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp("", "videofp-src-"+uuid.New().String()+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file for %q: %w", sourceKey, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file for %q: %w", sourceKey, err)
	}

	return tmp.Name(), cleanup, nil
}

// CheckBucketAccess verifies that we can access the configured bucket
// with a HeadBucket call (grounded on the teacher's own
// CheckBucketAccess health check).
func (f *S3Fetcher) CheckBucketAccess(ctx context.Context) error {
	_, err := f.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(f.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", f.bucket, err)
	}
	return nil
}

// Package archive implements the optional, best-effort result archival
// step (spec §4.M): uploading the finished CSV output to S3 after a
// successful run. Failure here is a warning, never a fatal exit.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Archiver uploads a finished output file to one S3 bucket.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

// NewS3Archiver creates an archiver for the given bucket, loading AWS
// credentials and region from the ambient environment/config chain.
func NewS3Archiver(ctx context.Context, bucket, region string) (*S3Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// UploadFile reads path and uploads it under key, tagged as CSV.
func (a *S3Archiver) UploadFile(ctx context.Context, key, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s for archival: %w", path, err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s/%s: %w", path, a.bucket, key, err)
	}
	return nil
}

// ParseS3URI splits an s3://bucket/key URI into its two components.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("invalid S3 URI (must start with s3://): %s", uri)
	}
	rest := uri[len("s3://"):]
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return "", "", fmt.Errorf("invalid S3 URI (no key): %s", uri)
	}
	return rest[:idx], rest[idx+1:], nil
}

// Archive uploads the output file at path to the s3:// URI dest. The
// region is resolved by the AWS SDK's default chain (AWS_REGION, the
// shared config file, etc.) when empty.
func Archive(ctx context.Context, dest, path, region string) error {
	bucket, key, err := ParseS3URI(dest)
	if err != nil {
		return err
	}
	a, err := NewS3Archiver(ctx, bucket, region)
	if err != nil {
		return err
	}
	return a.UploadFile(ctx, key, path)
}

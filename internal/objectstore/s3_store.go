// Package objectstore provides the core.ObjectStore implementations used to
// publish synthesized audio.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	// ErrBucketNameEmpty indicates that the bucket name is empty.
	ErrBucketNameEmpty = errors.New("bucket name cannot be empty")
	// ErrRegionEmpty indicates that the region is empty.
	ErrRegionEmpty = errors.New("region cannot be empty")
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements the core.ObjectStore interface using an S3 bucket.
// Objects are written with the public-read canned ACL.
type S3Store struct {
	client S3API
	bucket string
	region string
}

// NewS3Store creates a new S3Store for the given bucket and region.
func NewS3Store(client S3API, bucket, region string) (*S3Store, error) {
	if bucket == "" {
		return nil, ErrBucketNameEmpty
	}

	if region == "" {
		return nil, ErrRegionEmpty
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
	}, nil
}

// Upload saves an object to the bucket with public-read visibility.
func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, s.bucket, err)
	}

	return nil
}

// PublicURL returns the address under which an uploaded object is readable.
func (s *S3Store) PublicURL(key string) string {
	return PublicURL(s.bucket, s.region, key)
}

// Location returns the s3:// address of a key, for logging.
func (s *S3Store) Location(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

package athena

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mailmetrics/internal/domain"
)

var _ domain.ObjectStore = (*S3Store)(nil)

// GetObjectAPI is the subset of the S3 client the store uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store implements domain.ObjectStore on the S3 API.
type S3Store struct {
	client GetObjectAPI
}

// NewS3Store creates an S3Store from an S3 client.
func NewS3Store(client GetObjectAPI) *S3Store {
	return &S3Store{client: client}
}

// GetObject streams the object body. A missing key wraps
// domain.ErrObjectNotExist so callers can classify without the SDK.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, domain.ErrObjectNotExist)
		}
		return nil, fmt.Errorf("get object s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// Package athena adapts the AWS Athena query engine and S3 object store
// to the domain ports.
package athena

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"mailmetrics/internal/domain"
)

// NewAWSConfig builds an aws.Config from resolved credentials. Explicit
// key pairs become a static provider; ambient credentials defer to the
// SDK's default chain.
func NewAWSConfig(ctx context.Context, creds *domain.Credentials) (aws.Config, error) {
	if creds.Ambient() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(creds.Region))
		if err != nil {
			return aws.Config{}, fmt.Errorf("load ambient aws config: %w", err)
		}
		return cfg, nil
	}
	return aws.Config{
		Region: creds.Region,
		Credentials: awscreds.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
		),
	}, nil
}

// NewClients creates the Athena engine and S3 store adapters sharing one
// aws.Config built from the resolved credentials.
func NewClients(ctx context.Context, creds *domain.Credentials) (*Engine, *S3Store, error) {
	awsCfg, err := NewAWSConfig(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	return NewEngine(athena.NewFromConfig(awsCfg)), NewS3Store(s3.NewFromConfig(awsCfg)), nil
}

// Package awsclient builds the process-wide AWS service clients.
package awsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrRegionEmpty indicates that no region was supplied.
var ErrRegionEmpty = errors.New("aws region cannot be empty")

// Clients holds the read-only service clients shared by all requests.
type Clients struct {
	Config aws.Config
	Polly  *polly.Client
	S3     *s3.Client
}

// Load resolves credentials from the default chain and constructs the clients
// once for the given region.
func Load(ctx context.Context, region string) (*Clients, error) {
	if region == "" {
		return nil, ErrRegionEmpty
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Clients{
		Config: cfg,
		Polly:  polly.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
	}, nil
}

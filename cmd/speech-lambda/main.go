// main package for the speech-lambda function
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/awsclient"
	"github.com/book-expert/speech-service/internal/config"
	"github.com/book-expert/speech-service/internal/lambdaproxy"
	"github.com/book-expert/speech-service/internal/objectstore"
	"github.com/book-expert/speech-service/internal/polly"
	"github.com/book-expert/speech-service/internal/speech"
)

const logFileName = "speech-lambda.log"

// setup builds the handler once per execution environment; warm invocations
// reuse its clients.
func setup(ctx context.Context) (*lambdaproxy.Proxy, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Storage.Backend != config.BackendS3 {
		return nil, fmt.Errorf("%w: '%s' is not available in lambda", config.ErrUnknownBackend, cfg.Storage.Backend)
	}

	logDir := cfg.Paths.BaseLogsDir
	if logDir == "" {
		logDir = os.TempDir()
	}

	log, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	clients, err := awsclient.Load(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}

	store, err := objectstore.NewS3Store(clients.S3, cfg.AWS.OutputBucket, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	handler, err := speech.New(
		polly.New(clients.Polly),
		store,
		log,
		speech.WithKeyPrefix(cfg.AWS.KeyPrefix),
		speech.WithDefaultVoice(cfg.AWS.DefaultVoice),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech handler: %w", err)
	}

	log.System("Speech lambda initialized for bucket %s in %s", cfg.AWS.OutputBucket, cfg.AWS.Region)

	return lambdaproxy.New(handler), nil
}

func main() {
	proxy, err := setup(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(proxy.Invoke)
}

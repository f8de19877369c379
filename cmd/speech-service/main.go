// main package for the speech-service
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/awsclient"
	"github.com/book-expert/speech-service/internal/config"
	"github.com/book-expert/speech-service/internal/core"
	"github.com/book-expert/speech-service/internal/httpserver"
	"github.com/book-expert/speech-service/internal/metrics"
	"github.com/book-expert/speech-service/internal/objectstore"
	"github.com/book-expert/speech-service/internal/polly"
	"github.com/book-expert/speech-service/internal/speech"
	"github.com/book-expert/speech-service/internal/worker"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"
)

// ErrNATSRequired indicates that the nats backend was selected without a NATS URL.
var ErrNATSRequired = errors.New("nats storage backend requires nats.url")

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "speech-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// newStore selects the object store for the configured backend.
func newStore(cfg *config.Config, clients *awsclient.Clients, natsConnection *nats.Conn) (core.ObjectStore, error) {
	if cfg.Storage.Backend == config.BackendNATS {
		if natsConnection == nil {
			return nil, ErrNATSRequired
		}

		jetstreamContext, err := natsConnection.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to create jetstream context: %w", err)
		}

		return objectstore.NewNatsObjectStore(
			jetstreamContext,
			cfg.NATS.AudioObjectStoreBucket,
			httpserver.AudioBaseURL(cfg.Storage.PublicBaseURL),
		)
	}

	return objectstore.NewS3Store(clients.S3, cfg.AWS.OutputBucket, cfg.AWS.Region)
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	clients, err := awsclient.Load(ctx, cfg.AWS.Region)
	if err != nil {
		return err
	}

	var natsConnection *nats.Conn

	if cfg.NATS.URL != "" {
		natsConnection, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
		}
		defer natsConnection.Close()
	}

	store, err := newStore(cfg, clients, natsConnection)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}

	recorder := metrics.NewRecorder()

	handler, err := speech.New(
		polly.New(clients.Polly),
		store,
		log,
		speech.WithKeyPrefix(cfg.AWS.KeyPrefix),
		speech.WithDefaultVoice(cfg.AWS.DefaultVoice),
		speech.WithObserver(recorder),
	)
	if err != nil {
		return fmt.Errorf("failed to create speech handler: %w", err)
	}

	var natsWorker *worker.NatsWorker

	if natsConnection != nil {
		natsWorker, err = worker.NewNatsWorker(
			natsConnection,
			cfg.NATS.RequestSubject,
			cfg.NATS.AudioCreatedSubject,
			handler,
			log,
		)
		if err != nil {
			return fmt.Errorf("failed to create NATS worker: %w", err)
		}
	}

	var serverOpts []httpserver.Option

	// Objects in the NATS bucket are only reachable through this service.
	if reader, ok := store.(core.ObjectReader); ok {
		serverOpts = append(serverOpts, httpserver.WithAudioSource(reader))
	}

	server := httpserver.New(
		cfg.Server.ListenAddr,
		handler,
		recorder.Handler(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second,
		log,
		serverOpts...,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return server.Run(groupCtx) })

	if natsWorker != nil {
		group.Go(func() error { return natsWorker.Run(groupCtx) })
	}

	log.System("Speech-Service successfully initialized. Listening on %s", cfg.Server.ListenAddr)

	err = group.Wait()
	if err != nil {
		return fmt.Errorf("speech-service stopped: %w", err)
	}

	return nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	logDir := cfg.Paths.BaseLogsDir
	if logDir == "" {
		logDir = os.TempDir()
	}

	finalLog, err := setupLogger(logDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

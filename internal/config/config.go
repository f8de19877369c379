// Package config provides the configuration structure for the speech-service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/caarlos0/env/v11"
)

const (
	// BackendS3 stores audio in an S3 bucket.
	BackendS3 = "s3"
	// BackendNATS stores audio in a JetStream object store.
	BackendNATS = "nats"

	defaultVoice          = "Joanna"
	defaultListenAddr     = ":8080"
	defaultRequestSubject = "speech.synthesize"
	defaultShutdownSecs   = 10
)

var (
	// ErrRegionEmpty indicates that no AWS region was configured.
	ErrRegionEmpty = errors.New("aws region cannot be empty")
	// ErrBucketEmpty indicates that no output bucket was configured.
	ErrBucketEmpty = errors.New("output bucket cannot be empty")
	// ErrUnknownBackend indicates an unsupported storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrPublicBaseURLInvalid indicates a missing or relative storage.public_base_url.
	ErrPublicBaseURLInvalid = errors.New("storage.public_base_url must be an absolute http(s) URL")
)

// AWSConfig holds the synthesis and storage settings.
type AWSConfig struct {
	Region       string `toml:"region"        env:"AWS_REGION"`
	OutputBucket string `toml:"output_bucket" env:"OUTPUT_BUCKET_NAME"`
	KeyPrefix    string `toml:"key_prefix"    env:"OUTPUT_KEY_PREFIX"`
	DefaultVoice string `toml:"default_voice" env:"DEFAULT_VOICE_ID"`
}

// StorageConfig selects where synthesized audio is written.
type StorageConfig struct {
	Backend       string `toml:"backend"         env:"STORAGE_BACKEND"`
	PublicBaseURL string `toml:"public_base_url" env:"PUBLIC_BASE_URL"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                    string `toml:"url"                       env:"NATS_URL"`
	RequestSubject         string `toml:"request_subject"           env:"NATS_REQUEST_SUBJECT"`
	AudioCreatedSubject    string `toml:"audio_created_subject"     env:"NATS_AUDIO_CREATED_SUBJECT"`
	AudioObjectStoreBucket string `toml:"audio_object_store_bucket" env:"NATS_AUDIO_BUCKET"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr             string `toml:"listen_addr"              env:"LISTEN_ADDR"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir" env:"LOGS_DIR"`
}

// Config is the root configuration structure.
type Config struct {
	AWS     AWSConfig     `toml:"aws"`
	Storage StorageConfig `toml:"storage"`
	NATS    NATSConfig    `toml:"nats"`
	Server  ServerConfig  `toml:"server"`
	Paths   PathsConfig   `toml:"paths"`
}

// Load loads the configuration for the speech-service from the project file
// and applies environment overrides on top of it.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finish(&cfg)
}

// FromEnv builds the configuration from environment variables alone. It is
// used where no project file is deployed, such as the Lambda runtime.
func FromEnv() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.AWS.DefaultVoice == "" {
		c.AWS.DefaultVoice = defaultVoice
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendS3
	}

	if c.NATS.RequestSubject == "" {
		c.NATS.RequestSubject = defaultRequestSubject
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = defaultShutdownSecs
	}

	c.AWS.KeyPrefix = strings.Trim(c.AWS.KeyPrefix, "/")
}

// Validate checks that the settings required by the selected backend exist.
func (c *Config) Validate() error {
	if c.AWS.Region == "" {
		return ErrRegionEmpty
	}

	switch c.Storage.Backend {
	case BackendS3:
		if c.AWS.OutputBucket == "" {
			return ErrBucketEmpty
		}
	case BackendNATS:
		if c.NATS.AudioObjectStoreBucket == "" {
			return fmt.Errorf("%w: nats.audio_object_store_bucket", ErrBucketEmpty)
		}

		err := validateAbsoluteURL(c.Storage.PublicBaseURL)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownBackend, c.Storage.Backend)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return ErrPublicBaseURLInvalid
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublicBaseURLInvalid, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: '%s'", ErrPublicBaseURLInvalid, raw)
	}

	return nil
}

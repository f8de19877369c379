package main

import (
	"testing"

	"github.com/book-expert/speech-service/internal/awsclient"
	"github.com/book-expert/speech-service/internal/config"
	"github.com/book-expert/speech-service/internal/core"
	"github.com/book-expert/speech-service/internal/objectstore"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_NATSBackendRequiresConnection(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		AWS:     config.AWSConfig{Region: "eu-west-1"},
		Storage: config.StorageConfig{Backend: config.BackendNATS},
		NATS:    config.NATSConfig{AudioObjectStoreBucket: "AUDIO_FILES"},
	}

	_, err := newStore(cfg, &awsclient.Clients{}, nil)
	require.ErrorIs(t, err, ErrNATSRequired)
}

func TestNewStore_S3Backend(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		AWS:     config.AWSConfig{Region: "us-east-1", OutputBucket: "b"},
		Storage: config.StorageConfig{Backend: config.BackendS3},
	}

	store, err := newStore(cfg, &awsclient.Clients{}, nil)
	require.NoError(t, err)

	assert.IsType(t, &objectstore.S3Store{}, store)
	assert.Equal(t, "https://b.s3.amazonaws.com/k.mp3", store.PublicURL("k.mp3"))
}

func TestNewStore_NATSBackendServesUnderAudioPath(t *testing.T) {
	t.Parallel()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	defer natsServer.Shutdown()

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	defer natsConnection.Close()

	cfg := &config.Config{
		AWS:     config.AWSConfig{Region: "eu-west-1"},
		Storage: config.StorageConfig{Backend: config.BackendNATS, PublicBaseURL: "http://speech.local:8080/"},
		NATS:    config.NATSConfig{AudioObjectStoreBucket: "AUDIO_FILES"},
	}

	store, err := newStore(cfg, &awsclient.Clients{}, natsConnection)
	require.NoError(t, err)

	assert.Implements(t, (*core.ObjectReader)(nil), store)
	assert.Equal(t, "http://speech.local:8080/audio/k.mp3", store.PublicURL("k.mp3"))
}

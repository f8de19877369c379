package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/book-expert/speech-service/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const headerContentType = "Content-Type"

// NatsObjectStore implements the core.ObjectStore interface using NATS JetStream.
// It backs local deployments that have no S3 bucket. PublicURL joins the key
// onto a configured absolute base address, which the HTTP server's audio route
// answers from Download.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	publicBaseURL    string
	store            nats.ObjectStore
}

// NewNatsObjectStore creates and initializes a new NatsObjectStore.
func NewNatsObjectStore(
	jetstreamContext nats.JetStreamContext,
	bucketName string,
	publicBaseURL string,
) (*NatsObjectStore, error) {
	if bucketName == "" {
		return nil, ErrBucketNameEmpty
	}

	// Use a "create-first" approach.
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Synthesized speech for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})

	// If the bucket already exists, bind to it.
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		publicBaseURL:    strings.TrimRight(publicBaseURL, "/"),
		store:            store,
	}, nil
}

// Upload saves an object to the NATS object store.
func (n *NatsObjectStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	headers := nats.Header{}
	headers.Set(headerContentType, contentType)

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: headers,
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// Download retrieves an object from the NATS object store.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, n.wrapGetError("get", key, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// ContentType returns the content type recorded for an object.
func (n *NatsObjectStore) ContentType(_ context.Context, key string) (string, error) {
	info, err := n.store.GetInfo(key)
	if err != nil {
		return "", n.wrapGetError("stat", key, err)
	}

	return info.Headers.Get(headerContentType), nil
}

// PublicURL returns the address under which an uploaded object is served.
func (n *NatsObjectStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", n.publicBaseURL, key)
}

func (n *NatsObjectStore) wrapGetError(action, key string, err error) error {
	if errors.Is(err, nats.ErrObjectNotFound) {
		return fmt.Errorf("failed to %s object '%s' in bucket '%s': %w: %w", action, key, n.bucket, core.ErrObjectNotFound, err)
	}

	return fmt.Errorf("failed to %s object '%s' in bucket '%s': %w", action, key, n.bucket, err)
}

// Location returns the nats:// address of a key, for logging.
func (n *NatsObjectStore) Location(key string) string {
	return fmt.Sprintf("nats://%s/%s", n.bucket, key)
}

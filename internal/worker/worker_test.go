// Package worker_test tests the NATS worker for the speech service.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/core"
	"github.com/book-expert/speech-service/internal/objectstore"
	"github.com/book-expert/speech-service/internal/speech"
	"github.com/book-expert/speech-service/internal/worker"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	requestSubject      = "speech.synthesize"
	audioCreatedSubject = "audio.chunk.created"
)

var (
	errMockProcess = errors.New("mock process error")
	errMockUpload  = errors.New("mock upload error")
)

// mockObjectStore is a mock implementation of the ObjectStore interface.
type mockObjectStore struct {
	uploadShouldFail bool
	uploadedKey      string
	uploadedData     []byte
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if m.uploadShouldFail {
		return errMockUpload
	}

	m.uploadedKey = key
	m.uploadedData = data

	return nil
}

func (m *mockObjectStore) PublicURL(key string) string {
	return objectstore.PublicURL("b", "eu-west-1", key)
}

// mockSynthesizer is a mock implementation of the Synthesizer interface.
type mockSynthesizer struct {
	processShouldFail bool
	processedText     string
}

func (m *mockSynthesizer) Synthesize(_ context.Context, input core.SynthesisInput) ([]byte, error) {
	if m.processShouldFail {
		return nil, errMockProcess
	}

	m.processedText = input.Text

	return []byte("sample audio"), nil
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func setupTest(t *testing.T, synth *mockSynthesizer, store *mockObjectStore, announce string) (
	*nats.Conn,
	context.CancelFunc,
	<-chan error,
) {
	t.Helper()

	natsConnection := createTestNatsClient(t)

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	t.Cleanup(func() { _ = testLogger.Close() })

	handler, err := speech.New(synth, store, testLogger)
	require.NoError(t, err)

	workerInstance, err := worker.NewNatsWorker(natsConnection, requestSubject, announce, handler, testLogger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	// The worker shares the connection, so its SUB precedes any test publish.
	require.Eventually(t, func() bool {
		return natsConnection.NumSubscriptions() > 0
	}, 5*time.Second, 10*time.Millisecond)

	return natsConnection, cancel, errChan
}

func decodeEnvelope(t *testing.T, data []byte) (speech.Response, map[string]string) {
	t.Helper()

	var envelope speech.Response

	require.NoError(t, json.Unmarshal(data, &envelope))

	var body map[string]string

	require.NoError(t, json.Unmarshal([]byte(envelope.Body), &body))

	return envelope, body
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	synth := &mockSynthesizer{}
	store := &mockObjectStore{}
	natsConnection, cancel, errChan := setupTest(t, synth, store, audioCreatedSubject)

	announcements, err := natsConnection.SubscribeSync(audioCreatedSubject)
	require.NoError(t, err)
	require.NoError(t, natsConnection.Flush())

	request := nats.NewMsg(requestSubject)
	request.Data = []byte(`{"text":"Hello from NATS"}`)
	request.Header.Set(worker.HeaderWorkflowID, "workflow-42")

	replyMsg, err := natsConnection.RequestMsg(request, 5*time.Second)
	require.NoError(t, err, "Request should succeed and receive a reply")

	envelope, body := decodeEnvelope(t, replyMsg.Data)
	assert.Equal(t, http.StatusOK, envelope.StatusCode)
	assert.Equal(t, "*", envelope.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/"+store.uploadedKey, body["audioUrl"])

	assert.Equal(t, "Hello from NATS", synth.processedText)
	assert.Equal(t, []byte("sample audio"), store.uploadedData)

	announcement, err := announcements.NextMsg(5 * time.Second)
	require.NoError(t, err)

	var event events.AudioChunkCreatedEvent

	require.NoError(t, json.Unmarshal(announcement.Data, &event))
	assert.Equal(t, store.uploadedKey, event.AudioKey)
	assert.Equal(t, "workflow-42", event.Header.WorkflowID)
	assert.NotEmpty(t, event.Header.EventID)

	cancel()

	shutdownErr := <-errChan
	assert.NoError(t, shutdownErr, "worker.Run should not error on graceful shutdown")
}

func TestMessageHandler_FailureEnvelope(t *testing.T) {
	t.Parallel()

	synth := &mockSynthesizer{processShouldFail: true}
	store := &mockObjectStore{}
	natsConnection, cancel, errChan := setupTest(t, synth, store, audioCreatedSubject)

	announcements, err := natsConnection.SubscribeSync(audioCreatedSubject)
	require.NoError(t, err)
	require.NoError(t, natsConnection.Flush())

	replyMsg, err := natsConnection.Request(requestSubject, []byte(`{"text":"Hello"}`), 5*time.Second)
	require.NoError(t, err)

	envelope, body := decodeEnvelope(t, replyMsg.Data)
	assert.Equal(t, http.StatusInternalServerError, envelope.StatusCode)
	assert.Contains(t, body["message"], errMockProcess.Error())
	assert.Empty(t, store.uploadedKey)

	_, err = announcements.NextMsg(200 * time.Millisecond)
	require.ErrorIs(t, err, nats.ErrTimeout, "failed requests must not be announced")

	cancel()
	assert.NoError(t, <-errChan)
}

func TestMessageHandler_MalformedJSON(t *testing.T) {
	t.Parallel()

	natsConnection, cancel, errChan := setupTest(t, &mockSynthesizer{}, &mockObjectStore{}, "")

	replyMsg, err := natsConnection.Request(requestSubject, []byte(`{not json`), 5*time.Second)
	require.NoError(t, err)

	envelope, body := decodeEnvelope(t, replyMsg.Data)
	assert.Equal(t, http.StatusInternalServerError, envelope.StatusCode)
	assert.Contains(t, body["message"], "request body is not valid JSON")

	cancel()
	assert.NoError(t, <-errChan)
}

func TestNewNatsWorker_Validation(t *testing.T) {
	t.Parallel()

	_, err := worker.NewNatsWorker(nil, "", "", nil, nil)
	require.ErrorIs(t, err, worker.ErrSubjectEmpty)

	_, err = worker.NewNatsWorker(nil, requestSubject, "", nil, nil)
	require.ErrorIs(t, err, worker.ErrProcessorNil)
}

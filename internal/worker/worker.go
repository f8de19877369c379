// Package worker provides a NATS worker that serves speech requests.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/speech"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout = 60 * time.Second

	// HeaderWorkflowID carries the caller's workflow id, if any.
	HeaderWorkflowID = "Workflow-Id"
)

var (
	// ErrSubjectEmpty indicates that the request subject is empty.
	ErrSubjectEmpty = errors.New("request subject cannot be empty")
	// ErrProcessorNil indicates that no processor was supplied.
	ErrProcessorNil = errors.New("processor cannot be nil")
)

// Processor runs a speech request and renders its envelope.
type Processor interface {
	Process(ctx context.Context, body string) (*speech.Result, error)
	Respond(result *speech.Result, err error) speech.Response
}

// NatsWorker listens for speech requests on a NATS subject and replies with
// the response envelope. Successful requests are also announced on the
// audio-created subject when one is configured.
type NatsWorker struct {
	natsConnection      *nats.Conn
	subject             string
	audioCreatedSubject string
	processor           Processor
	log                 *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	audioCreatedSubject string,
	processor Processor,
	log *logger.Logger,
) (*NatsWorker, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	if processor == nil {
		return nil, ErrProcessorNil
	}

	return &NatsWorker{
		natsConnection:      natsConnection,
		subject:             subject,
		audioCreatedSubject: audioCreatedSubject,
		processor:           processor,
		log:                 log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for speech requests on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	result, err := w.processor.Process(ctx, string(msg.Data))
	resp := w.processor.Respond(result, err)

	replyErr := w.reply(msg, resp)
	if replyErr != nil {
		w.log.Error("Failed to reply on subject %s: %v", w.subject, replyErr)
	}

	if err != nil || w.audioCreatedSubject == "" {
		return
	}

	publishErr := w.publishAudioCreated(workflowID(msg), result)
	if publishErr != nil {
		w.log.Error("Failed to publish audio created event for key %s: %v", result.Key, publishErr)
	}
}

// reply marshals the envelope and responds to the request, if it has a reply inbox.
func (w *NatsWorker) reply(msg *nats.Msg, resp speech.Response) error {
	if msg.Reply == "" {
		return nil
	}

	replyData, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response envelope: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish response envelope: %w", err)
	}

	return nil
}

// publishAudioCreated announces a stored artifact with an AudioChunkCreatedEvent.
func (w *NatsWorker) publishAudioCreated(workflow string, result *speech.Result) error {
	event := &events.AudioChunkCreatedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now().UTC(),
			WorkflowID: workflow,
			EventID:    uuid.NewString(),
		},
		AudioKey: result.Key,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audio created event: %w", err)
	}

	err = w.natsConnection.Publish(w.audioCreatedSubject, data)
	if err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", w.audioCreatedSubject, err)
	}

	return nil
}

func workflowID(msg *nats.Msg) string {
	if msg.Header != nil {
		if id := msg.Header.Get(HeaderWorkflowID); id != "" {
			return id
		}
	}

	return uuid.NewString()
}

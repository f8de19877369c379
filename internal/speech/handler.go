// Package speech turns a text request into a publicly readable MP3 object.
//
// A request is parsed, synthesized with the neural engine (falling back once
// to the standard engine when the voice does not support it), stored under a
// fresh key and answered with the object's public URL. Every failure is
// reported through the same JSON envelope with status 500.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/core"
)

const (
	// OutcomeSuccess labels a request that produced a URL.
	OutcomeSuccess = "success"
	// OutcomeFailure labels a request that produced an error envelope.
	OutcomeFailure = "failure"

	defaultVoice = "Joanna"
)

var (
	// ErrSynthesizerNil indicates that no synthesizer was supplied.
	ErrSynthesizerNil = errors.New("synthesizer cannot be nil")
	// ErrStoreNil indicates that no object store was supplied.
	ErrStoreNil = errors.New("object store cannot be nil")
	// ErrLoggerNil indicates that no logger was supplied.
	ErrLoggerNil = errors.New("logger cannot be nil")
)

// Result describes a stored audio artifact.
type Result struct {
	Key    string
	URL    string
	Voice  string
	Engine core.Engine
	Bytes  int
}

// locator is implemented by stores that can describe where a key is written.
type locator interface {
	Location(key string) string
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, time.Duration) {}
func (noopObserver) ObserveFallback(string)               {}

// Handler orchestrates synthesis and storage for a single request at a time.
// It holds no per-request state and is safe for concurrent use.
type Handler struct {
	synthesizer  core.Synthesizer
	store        core.ObjectStore
	log          *logger.Logger
	observer     core.Observer
	newKey       KeyGenerator
	defaultVoice string
}

// Option customizes a Handler.
type Option func(*Handler)

// WithObserver reports request outcomes to observer.
func WithObserver(observer core.Observer) Option {
	return func(h *Handler) {
		if observer != nil {
			h.observer = observer
		}
	}
}

// WithKeyGenerator replaces the object key generator.
func WithKeyGenerator(newKey KeyGenerator) Option {
	return func(h *Handler) {
		if newKey != nil {
			h.newKey = newKey
		}
	}
}

// WithKeyPrefix stores objects under prefix/.
func WithKeyPrefix(prefix string) Option {
	return func(h *Handler) {
		h.newKey = NewKeyGenerator(prefix)
	}
}

// WithDefaultVoice sets the voice used when a request names none.
func WithDefaultVoice(voice string) Option {
	return func(h *Handler) {
		if voice != "" {
			h.defaultVoice = voice
		}
	}
}

// New creates a Handler over the given synthesizer and store.
func New(
	synthesizer core.Synthesizer,
	store core.ObjectStore,
	log *logger.Logger,
	opts ...Option,
) (*Handler, error) {
	if synthesizer == nil {
		return nil, ErrSynthesizerNil
	}

	if store == nil {
		return nil, ErrStoreNil
	}

	if log == nil {
		return nil, ErrLoggerNil
	}

	handler := &Handler{
		synthesizer:  synthesizer,
		store:        store,
		log:          log,
		observer:     noopObserver{},
		newKey:       NewKeyGenerator(""),
		defaultVoice: defaultVoice,
	}

	for _, opt := range opts {
		opt(handler)
	}

	return handler, nil
}

// Handle processes a raw request body and always returns a well-formed
// envelope: 200 with the audio URL, or 500 with the failure message.
func (h *Handler) Handle(ctx context.Context, body string) Response {
	result, err := h.Process(ctx, body)

	return h.Respond(result, err)
}

// Respond converts the outcome of Process into a response envelope.
func (h *Handler) Respond(result *Result, err error) Response {
	if err == nil && result == nil {
		err = core.ErrNoAudio
	}

	if err != nil {
		h.log.Error("Error: %v", err)

		return ErrorResponse(err)
	}

	return SuccessResponse(result.URL)
}

// Process parses the body, synthesizes the audio, uploads it and returns the
// stored artifact. No upload is attempted when synthesis fails.
func (h *Handler) Process(ctx context.Context, body string) (result *Result, err error) {
	started := time.Now()

	defer func() {
		outcome := OutcomeSuccess
		if err != nil {
			outcome = OutcomeFailure
		}

		h.observer.ObserveRequest(outcome, time.Since(started))
	}()

	h.log.Info("Received event: %s", body)

	request, err := ParseRequest(body, h.defaultVoice)
	if err != nil {
		return nil, err
	}

	audio, engine, err := h.synthesize(ctx, request)
	if err != nil {
		return nil, err
	}

	key := h.newKey()

	h.log.Info("Uploading audio stream to %s", h.location(key))

	err = h.store.Upload(ctx, key, audio, core.ContentTypeMPEG)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio: %w", err)
	}

	url := h.store.PublicURL(key)

	h.log.Info("Successfully generated audio: %s", url)

	return &Result{
		Key:    key,
		URL:    url,
		Voice:  request.Voice,
		Engine: engine,
		Bytes:  len(audio),
	}, nil
}

// synthesize requests neural audio and retries exactly once with the standard
// engine when the voice does not support neural synthesis.
func (h *Handler) synthesize(ctx context.Context, request Request) ([]byte, core.Engine, error) {
	input := core.SynthesisInput{
		Text:    request.Text,
		VoiceID: request.Voice,
		Engine:  core.EngineNeural,
	}

	audio, err := h.synthesizer.Synthesize(ctx, input)
	if errors.Is(err, core.ErrEngineNotSupported) {
		h.log.Warn("Neural engine not supported for voice %s, falling back to standard.", request.Voice)
		h.observer.ObserveFallback(request.Voice)

		input.Engine = core.EngineStandard
		audio, err = h.synthesizer.Synthesize(ctx, input)
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if len(audio) == 0 {
		return nil, "", core.ErrNoAudio
	}

	return audio, input.Engine, nil
}

func (h *Handler) location(key string) string {
	if loc, ok := h.store.(locator); ok {
		return loc.Location(key)
	}

	return key
}

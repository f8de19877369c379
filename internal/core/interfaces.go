// Package core defines the core business logic and interfaces for the speech service.
package core

import (
	"context"
	"errors"
	"time"
)

// ContentTypeMPEG is the content type of every synthesized artifact.
const ContentTypeMPEG = "audio/mpeg"

var (
	// ErrEngineNotSupported indicates that the requested voice cannot be rendered
	// by the requested engine. Callers may retry with EngineStandard.
	ErrEngineNotSupported = errors.New("engine not supported for voice")
	// ErrNoAudio indicates that the synthesizer returned no audio payload.
	ErrNoAudio = errors.New("synthesizer did not return an audio stream")
	// ErrObjectNotFound indicates that no object is stored under a key.
	ErrObjectNotFound = errors.New("object not found")
)

// Engine selects the synthesis quality tier.
type Engine string

const (
	// EngineNeural requests the higher quality neural tier.
	EngineNeural Engine = "neural"
	// EngineStandard leaves the engine choice to the provider default.
	EngineStandard Engine = "standard"
)

// SynthesisInput holds the parameters of a single synthesis call.
type SynthesisInput struct {
	Text    string
	VoiceID string
	Engine  Engine
}

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, input SynthesisInput) ([]byte, error)
}

// ObjectStore defines the interface for persisting publicly readable blobs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// ObjectReader serves stored objects back to clients.
type ObjectReader interface {
	Download(ctx context.Context, key string) ([]byte, error)
	ContentType(ctx context.Context, key string) (string, error)
}

// Observer receives request outcomes for metrics.
type Observer interface {
	ObserveRequest(outcome string, elapsed time.Duration)
	ObserveFallback(voiceID string)
}

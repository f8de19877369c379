// Package polly implements core.Synthesizer on top of Amazon Polly.
package polly

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awspolly "github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/book-expert/speech-service/internal/core"
)

// API is the subset of the Polly client used by Synthesizer.
type API interface {
	SynthesizeSpeech(
		ctx context.Context,
		params *awspolly.SynthesizeSpeechInput,
		optFns ...func(*awspolly.Options),
	) (*awspolly.SynthesizeSpeechOutput, error)
}

// Synthesizer requests MP3 speech from Polly.
type Synthesizer struct {
	client API
}

// New creates a new Synthesizer.
func New(client API) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize renders the input text and returns the MP3 bytes. An engine
// rejection for the voice is reported as core.ErrEngineNotSupported.
func (s *Synthesizer) Synthesize(ctx context.Context, input core.SynthesisInput) ([]byte, error) {
	params := &awspolly.SynthesizeSpeechInput{
		Text:         aws.String(input.Text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(input.VoiceID),
	}

	// The standard tier is requested by leaving the engine unset.
	if input.Engine == core.EngineNeural {
		params.Engine = types.EngineNeural
	}

	output, err := s.client.SynthesizeSpeech(ctx, params)
	if err != nil {
		return nil, classify(err, input)
	}

	if output.AudioStream == nil {
		return nil, core.ErrNoAudio
	}

	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio stream: %w", err)
	}

	if len(audio) == 0 {
		return nil, core.ErrNoAudio
	}

	return audio, nil
}

func classify(err error, input core.SynthesisInput) error {
	var (
		engineErr *types.EngineNotSupportedException
		ssmlErr   *types.UnsupportedSsmlException
	)

	if errors.As(err, &engineErr) || errors.As(err, &ssmlErr) {
		return fmt.Errorf("%w: voice '%s', engine '%s': %w", core.ErrEngineNotSupported, input.VoiceID, input.Engine, err)
	}

	return fmt.Errorf("failed to synthesize speech with voice '%s': %w", input.VoiceID, err)
}

package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput indicates that the request body is not valid JSON.
	ErrMalformedInput = errors.New("request body is not valid JSON")
	// ErrMissingText indicates that the request carries no text to synthesize.
	ErrMissingText = errors.New("missing 'text' property in request body")
)

// requestBody is the inbound JSON payload.
type requestBody struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Request is a validated synthesis request.
type Request struct {
	Text  string
	Voice string
}

// ParseRequest decodes and validates an inbound body. An empty body is read
// as an empty object; an absent or empty voice resolves to defaultVoice.
func ParseRequest(body string, defaultVoice string) (Request, error) {
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}

	var payload requestBody

	err := json.Unmarshal([]byte(body), &payload)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	if payload.Text == "" {
		return Request{}, ErrMissingText
	}

	voice := payload.Voice
	if voice == "" {
		voice = defaultVoice
	}

	return Request{Text: payload.Text, Voice: voice}, nil
}

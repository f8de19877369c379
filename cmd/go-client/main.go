package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
)

// Flag descriptions and messages.
const (
	flagTextDesc    = "Text to convert to speech"
	flagVoiceDesc   = "Voice identifier (defaults to the service default)"
	flagURLDesc     = "Base URL of the speech service"
	flagTimeoutDesc = "Request timeout"
	flagVerboseDesc = "Enable verbose logging"
)

// Flag names.
const (
	flagText    = "text"
	flagVoice   = "voice"
	flagURL     = "url"
	flagTimeout = "timeout"
	flagVerbose = "verbose"
)

// Error and log messages.
const (
	errFailedToInitLogger  = "Failed to initialize logger: %v"
	errTextRequired        = "--text must be provided"
	errFailedToSynthesize  = "Failed to synthesize speech: %v"
	errServiceStatus       = "speech service returned status %d: %s"
	errEmptyAudioURL       = "speech service returned no audio URL"
	logRequestingSpeech    = "Requesting speech from %s (voice: %q)"
	logSuccessfullyCreated = "Successfully generated audio: %s"
)

// File names and defaults.
const (
	logFileNameDefault = "speech-client.log"
	logFileNameVerbose = "speech-client-verbose.log"
	defaultServiceURL  = "http://localhost:8080"
	defaultTimeout     = 60 * time.Second
	speechPath         = "/speech"
)

// ErrTextRequired is returned when no text flag is supplied.
var ErrTextRequired = errors.New(errTextRequired)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text    string
	voice   string
	url     string
	timeout time.Duration
	verbose bool
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type speechResponse struct {
	AudioURL string `json:"audioUrl"`
	Message  string `json:"message"`
}

func main() {
	err := run()
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run() error {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	logFileName := logFileNameDefault
	if flags.verbose {
		logFileName = logFileNameVerbose
	}

	clientLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf(errFailedToInitLogger, err)
	}
	defer clientLog.Close()

	err = validateFlags(flags)
	if err != nil {
		flag.Usage()
		clientLog.Error("%v", err)

		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), flags.timeout)
	defer cancel()

	clientLog.Info(logRequestingSpeech, flags.url, flags.voice)

	audioURL, err := requestSpeech(ctx, http.DefaultClient, flags.url, flags.text, flags.voice)
	if err != nil {
		clientLog.Error(errFailedToSynthesize, err)

		return fmt.Errorf(errFailedToSynthesize, err)
	}

	clientLog.Info(logSuccessfullyCreated, audioURL)
	fmt.Println(audioURL)

	return nil
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(flagSet *flag.FlagSet, args []string) appFlags {
	var flags appFlags
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flagSet.StringVar(&flags.url, flagURL, defaultServiceURL, flagURLDesc)
	flagSet.DurationVar(&flags.timeout, flagTimeout, defaultTimeout, flagTimeoutDesc)
	flagSet.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	_ = flagSet.Parse(args)

	return flags
}

// validateFlags checks required arguments at the application boundary.
func validateFlags(flags appFlags) error {
	if strings.TrimSpace(flags.text) == "" {
		return ErrTextRequired
	}

	return nil
}

// requestSpeech posts the text to the service and returns the public audio URL.
func requestSpeech(ctx context.Context, httpClient *http.Client, baseURL, text, voice string) (string, error) {
	payload, err := json.Marshal(speechRequest{Text: text, Voice: voice})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + speechPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to speech service at %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var decoded speechResponse

	err = json.Unmarshal(body, &decoded)
	if err != nil {
		return "", fmt.Errorf(errServiceStatus, resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf(errServiceStatus, resp.StatusCode, decoded.Message)
	}

	if decoded.AudioURL == "" {
		return "", errors.New(errEmptyAudioURL)
	}

	return decoded.AudioURL, nil
}

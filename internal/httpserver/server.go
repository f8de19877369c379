// Package httpserver exposes the speech handler over HTTP.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/speech-service/internal/core"
	"github.com/book-expert/speech-service/internal/speech"
)

const (
	// SpeechPath accepts synthesis requests.
	SpeechPath = "/speech"
	// HealthPath reports liveness.
	HealthPath = "/healthz"
	// MetricsPath serves Prometheus metrics.
	MetricsPath = "/metrics"
	// AudioPath serves stored audio when an object reader is configured.
	AudioPath = "/audio"

	headerContentType  = "Content-Type"
	headerAllowOrigin  = "Access-Control-Allow-Origin"
	headerAllowMethods = "Access-Control-Allow-Methods"
	headerAllowHeaders = "Access-Control-Allow-Headers"
	allowedMethods     = "POST, OPTIONS"
	allowedHeaders     = "Content-Type"
	allowAnyOrigin     = "*"

	maxBodyBytes      = 1 << 20
	readHeaderTimeout = 10 * time.Second
)

// RequestHandler is the transport-neutral handler invoked for every request.
type RequestHandler interface {
	Handle(ctx context.Context, body string) speech.Response
}

// Server serves speech requests until its context is cancelled.
type Server struct {
	httpServer      *http.Server
	log             *logger.Logger
	shutdownTimeout time.Duration
}

// Option configures optional routes.
type Option func(*routes)

type routes struct {
	audio core.ObjectReader
}

// WithAudioSource serves objects from reader under AudioPath.
func WithAudioSource(reader core.ObjectReader) Option {
	return func(r *routes) {
		r.audio = reader
	}
}

// AudioBaseURL returns the absolute prefix of audio URLs for a service
// reachable at publicBaseURL.
func AudioBaseURL(publicBaseURL string) string {
	return strings.TrimRight(publicBaseURL, "/") + AudioPath
}

// New creates a Server listening on addr. metricsHandler may be nil.
func New(
	addr string,
	handler RequestHandler,
	metricsHandler http.Handler,
	shutdownTimeout time.Duration,
	log *logger.Logger,
	opts ...Option,
) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewMux(handler, metricsHandler, log, opts...),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// NewMux builds the routing table of the server.
func NewMux(handler RequestHandler, metricsHandler http.Handler, log *logger.Logger, opts ...Option) *http.ServeMux {
	var optional routes
	for _, opt := range opts {
		opt(&optional)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST "+SpeechPath, func(writer http.ResponseWriter, request *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxBodyBytes))
		if err != nil {
			log.Error("Failed to read request body: %v", err)
			writeResponse(writer, speech.ErrorResponse(fmt.Errorf("failed to read request body: %w", err)), log)

			return
		}

		writeResponse(writer, handler.Handle(request.Context(), string(body)), log)
	})

	// Browsers send a preflight before a cross-origin JSON POST.
	mux.HandleFunc("OPTIONS "+SpeechPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set(headerAllowOrigin, allowAnyOrigin)
		writer.Header().Set(headerAllowMethods, allowedMethods)
		writer.Header().Set(headerAllowHeaders, allowedHeaders)
		writer.WriteHeader(http.StatusNoContent)
	})

	if optional.audio != nil {
		mux.HandleFunc("GET "+AudioPath+"/{key...}", serveAudio(optional.audio, log))
	}

	mux.HandleFunc("GET "+HealthPath, func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)

		_, err := writer.Write([]byte("ok"))
		if err != nil {
			log.Warn("Failed to write health response: %v", err)
		}
	})

	if metricsHandler != nil {
		mux.Handle("GET "+MetricsPath, metricsHandler)
	}

	return mux
}

// Run listens until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	s.log.Info("HTTP server listening on %s", listener.Addr().String())

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}

func serveAudio(reader core.ObjectReader, log *logger.Logger) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		key := request.PathValue("key")

		data, err := reader.Download(request.Context(), key)
		if err != nil {
			if errors.Is(err, core.ErrObjectNotFound) {
				http.NotFound(writer, request)

				return
			}

			log.Error("Failed to download audio '%s': %v", key, err)
			http.Error(writer, "failed to read audio", http.StatusInternalServerError)

			return
		}

		contentType, err := reader.ContentType(request.Context(), key)
		if err != nil || contentType == "" {
			contentType = core.ContentTypeMPEG
		}

		writer.Header().Set(headerContentType, contentType)
		writer.Header().Set(headerAllowOrigin, allowAnyOrigin)
		writer.WriteHeader(http.StatusOK)

		_, err = writer.Write(data)
		if err != nil {
			log.Warn("Failed to write audio '%s': %v", key, err)
		}
	}
}

func writeResponse(writer http.ResponseWriter, resp speech.Response, log *logger.Logger) {
	for name, value := range resp.Headers {
		writer.Header().Set(name, value)
	}

	writer.WriteHeader(resp.StatusCode)

	_, err := io.WriteString(writer, resp.Body)
	if err != nil {
		log.Warn("Failed to write response body: %v", err)
	}
}

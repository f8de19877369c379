// Package lambdaproxy adapts API Gateway HTTP API events to the speech handler.
package lambdaproxy

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/speech-service/internal/speech"
)

// RequestHandler is the transport-neutral handler invoked for every event.
type RequestHandler interface {
	Handle(ctx context.Context, body string) speech.Response
}

// Proxy converts proxy integration events to and from handler envelopes.
type Proxy struct {
	handler RequestHandler
}

// New creates a new Proxy.
func New(handler RequestHandler) *Proxy {
	return &Proxy{handler: handler}
}

// Invoke is registered with lambda.Start. It never returns an error so that
// every failure reaches the caller as a JSON envelope.
func (p *Proxy) Invoke(
	ctx context.Context,
	event events.APIGatewayV2HTTPRequest,
) (events.APIGatewayV2HTTPResponse, error) {
	body := event.Body

	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return toProxyResponse(speech.ErrorResponse(fmt.Errorf("failed to decode request body: %w", err))), nil
		}

		body = string(decoded)
	}

	return toProxyResponse(p.handler.Handle(ctx, body)), nil
}

func toProxyResponse(resp speech.Response) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}
}

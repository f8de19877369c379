package lambdaproxy_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/speech-service/internal/lambdaproxy"
	"github.com/book-expert/speech-service/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHandler struct {
	bodies []string
}

func (m *mockHandler) Handle(_ context.Context, body string) speech.Response {
	m.bodies = append(m.bodies, body)

	return speech.SuccessResponse("https://b.s3.amazonaws.com/k.mp3")
}

func TestInvoke_PlainBody(t *testing.T) {
	t.Parallel()

	handler := &mockHandler{}
	proxy := lambdaproxy.New(handler)

	resp, err := proxy.Invoke(context.Background(), events.APIGatewayV2HTTPRequest{Body: `{"text":"hi"}`})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.JSONEq(t, `{"audioUrl":"https://b.s3.amazonaws.com/k.mp3"}`, resp.Body)
	assert.Equal(t, []string{`{"text":"hi"}`}, handler.bodies)
}

func TestInvoke_Base64Body(t *testing.T) {
	t.Parallel()

	handler := &mockHandler{}
	proxy := lambdaproxy.New(handler)

	_, err := proxy.Invoke(context.Background(), events.APIGatewayV2HTTPRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"text":"hi"}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{`{"text":"hi"}`}, handler.bodies)
}

func TestInvoke_InvalidBase64(t *testing.T) {
	t.Parallel()

	handler := &mockHandler{}
	proxy := lambdaproxy.New(handler)

	resp, err := proxy.Invoke(context.Background(), events.APIGatewayV2HTTPRequest{
		Body:            "%%%not-base64",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "Internal server error: failed to decode request body")
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Empty(t, handler.bodies)
}

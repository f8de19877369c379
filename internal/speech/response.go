package speech

import (
	"encoding/json"
	"net/http"
)

const (
	headerContentType = "Content-Type"
	headerAllowOrigin = "Access-Control-Allow-Origin"
	contentTypeJSON   = "application/json"

	errorMessagePrefix = "Internal server error: "
	fallbackErrorBody  = `{"message":"Internal server error"}`
)

// Response is the transport-neutral envelope returned for every request.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type successBody struct {
	AudioURL string `json:"audioUrl"`
}

type errorBody struct {
	Message string `json:"message"`
}

// SuccessResponse builds the 200 envelope carrying the public audio URL.
func SuccessResponse(audioURL string) Response {
	return Response{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(),
		Body:       encodeBody(successBody{AudioURL: audioURL}),
	}
}

// ErrorResponse builds the 500 envelope describing err.
func ErrorResponse(err error) Response {
	return Response{
		StatusCode: http.StatusInternalServerError,
		Headers:    responseHeaders(),
		Body:       encodeBody(errorBody{Message: errorMessagePrefix + err.Error()}),
	}
}

func responseHeaders() map[string]string {
	return map[string]string{
		headerContentType: contentTypeJSON,
		headerAllowOrigin: "*",
	}
}

func encodeBody(payload any) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fallbackErrorBody
	}

	return string(data)
}

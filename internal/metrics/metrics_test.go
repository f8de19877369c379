package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/speech-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewRecorder()

	recorder.ObserveRequest("success", 120*time.Millisecond)
	recorder.ObserveRequest("success", 80*time.Millisecond)
	recorder.ObserveRequest("failure", 10*time.Millisecond)
	recorder.ObserveFallback("Ivy")

	count, err := testutil.GatherAndCount(recorder.Registry(), "speech_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(recorder.Registry(), "speech_engine_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewRecorder()
	recorder.ObserveRequest("success", time.Second)

	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `speech_requests_total{outcome="success"} 1`)
}

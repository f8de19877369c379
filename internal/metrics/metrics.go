// Package metrics exports Prometheus metrics for speech requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "speech"

// Recorder implements core.Observer with Prometheus collectors registered on
// its own registry.
type Recorder struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbacksTotal  *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors.
func NewRecorder() *Recorder {
	recorder := &Recorder{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of synthesis requests",
			},
			[]string{"outcome"}, // outcome: success, failure
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of synthesis requests in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_fallbacks_total",
				Help:      "Total number of neural to standard engine fallbacks",
			},
			[]string{"voice"},
		),
	}

	recorder.registry.MustRegister(
		recorder.requestsTotal,
		recorder.requestDuration,
		recorder.fallbacksTotal,
	)

	return recorder
}

// ObserveRequest records a finished request.
func (r *Recorder) ObserveRequest(outcome string, elapsed time.Duration) {
	r.requestsTotal.WithLabelValues(outcome).Inc()
	r.requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveFallback records a standard engine retry.
func (r *Recorder) ObserveFallback(voiceID string) {
	r.fallbacksTotal.WithLabelValues(voiceID).Inc()
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	chatRequestsTotal   *prometheus.CounterVec
	chatRequestDuration prometheus.Histogram

	completionTotal    *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec

	extractionTotal *prometheus.CounterVec

	activeSessions       prometheus.Gauge
	sessionsEvictedTotal prometheus.Counter

	uploadsSweptTotal prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			chatRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_requests_total",
					Help: "Total chat requests by outcome.",
				},
				[]string{"outcome"},
			),
			chatRequestDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "chat_request_duration_seconds",
					Help:    "End-to-end chat request duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			completionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "completion_requests_total",
					Help: "Total completion calls by provider and status.",
				},
				[]string{"provider", "status"},
			),
			completionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "completion_duration_seconds",
					Help:    "Completion call duration in seconds by provider.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
			extractionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "document_extractions_total",
					Help: "Total document extractions by status.",
				},
				[]string{"status"},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current live session count.",
				},
			),
			sessionsEvictedTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "sessions_evicted_total",
					Help: "Total idle sessions evicted by the reaper.",
				},
			),
			uploadsSweptTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "uploads_swept_total",
					Help: "Total orphaned upload files removed by the sweeper.",
				},
			),
		}

		prometheus.MustRegister(
			m.chatRequestsTotal,
			m.chatRequestDuration,
			m.completionTotal,
			m.completionDuration,
			m.extractionTotal,
			m.activeSessions,
			m.sessionsEvictedTotal,
			m.uploadsSweptTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordChatRequest records one chat request with its outcome
// ("ok", "input", "extraction", "model").
func RecordChatRequest(outcome string, duration time.Duration) {
	m := getMetrics()
	m.chatRequestsTotal.WithLabelValues(outcome).Inc()
	m.chatRequestDuration.Observe(duration.Seconds())
}

// RecordCompletion records one completion call.
func RecordCompletion(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.completionTotal.WithLabelValues(provider, status).Inc()
	m.completionDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordExtraction records one document extraction attempt.
func RecordExtraction(success bool) {
	status := "error"
	if success {
		status = "success"
	}
	getMetrics().extractionTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions sets the live session gauge.
func SetActiveSessions(n int) {
	getMetrics().activeSessions.Set(float64(n))
}

// RecordSessionsEvicted increments the eviction counter by n.
func RecordSessionsEvicted(n int) {
	getMetrics().sessionsEvictedTotal.Add(float64(n))
}

// RecordUploadsSwept increments the upload sweep counter by n.
func RecordUploadsSwept(n int) {
	getMetrics().uploadsSweptTotal.Add(float64(n))
}

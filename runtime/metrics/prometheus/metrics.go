// Package prometheus exposes code-generation session metrics to Prometheus.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "codestream"

var (
	// sessionsActive is a gauge of sessions between start and close.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently active code generation sessions",
		},
	)

	// sessionsTotal counts closed sessions by outcome.
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of closed sessions",
		},
		[]string{"outcome", "close_code"},
	)

	// sessionDuration is a histogram of session duration from start to close.
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Histogram of session duration in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	// connectDuration is a histogram of WebSocket connection establishment time.
	connectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_duration_seconds",
			Help:      "Time from session start to an open WebSocket in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// messagesTotal counts well-formed inbound frames by type.
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of inbound frames by type",
		},
		[]string{"type"},
	)

	// malformedMessagesTotal counts inbound frames that were discarded.
	malformedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_messages_total",
			Help:      "Total number of inbound frames that failed to parse or validate",
		},
	)

	// transportErrorsTotal counts low-level connection errors.
	transportErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Total number of WebSocket transport errors",
		},
	)

	// variantsFinalizedTotal counts final-output frames.
	variantsFinalizedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variants_finalized_total",
			Help:      "Total number of variants that produced a final output",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		connectDuration,
		messagesTotal,
		malformedMessagesTotal,
		transportErrorsTotal,
		variantsFinalizedTotal,
	}
)

// RecordSessionStart increments the active sessions gauge.
func RecordSessionStart() {
	sessionsActive.Inc()
}

// RecordSessionEnd records a closed session.
func RecordSessionEnd(outcome, closeCode string, durationSeconds float64) {
	sessionsActive.Dec()
	sessionsTotal.WithLabelValues(outcome, closeCode).Inc()
	sessionDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

// RecordConnect records how long the connection took to open.
func RecordConnect(durationSeconds float64) {
	connectDuration.Observe(durationSeconds)
}

// RecordMessage counts an inbound frame of the given type.
func RecordMessage(messageType string) {
	messagesTotal.WithLabelValues(messageType).Inc()
}

// RecordMalformedMessage counts a discarded inbound frame.
func RecordMalformedMessage() {
	malformedMessagesTotal.Inc()
}

// RecordTransportError counts a transport error.
func RecordTransportError() {
	transportErrorsTotal.Inc()
}

// RecordVariantFinalized counts a finalized variant.
func RecordVariantFinalized() {
	variantsFinalizedTotal.Inc()
}

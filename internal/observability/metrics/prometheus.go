package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Buckets for delivery attempt duration histogram (1ms to 30s)
	durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

	// DispatchesReceived counts dispatch events entering the engine, by source.
	DispatchesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatches_received_total",
			Help: "Total number of dispatch events received by the engine, by source (http, kafka, inline).",
		},
		[]string{"source"},
	)

	// AttemptsTotal counts settled per-channel delivery attempts.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_attempts_total",
			Help: "Total number of settled per-channel delivery attempts, by channel and status (SENT, DELIVERED, FAILED).",
		},
		[]string{"channel", "status"},
	)

	// AttemptsSkipped counts channels excluded from a fan-out before any send.
	AttemptsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_attempts_skipped_total",
			Help: "Total number of channel attempts skipped before sending, by channel and reason (missing_destination).",
		},
		[]string{"channel", "reason"},
	)

	// AttemptDuration measures the duration of individual delivery attempts.
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_channel_attempt_duration_seconds",
			Help:    "Histogram of delivery attempt duration in seconds, by channel and success status.",
			Buckets: durationBuckets,
		},
		[]string{"channel", "success"},
	)

	// PersistFailures counts audit-log writes that failed after an attempt settled.
	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_record_persist_failures_total",
			Help: "Total number of notification record writes that failed, by channel.",
		},
		[]string{"channel"},
	)

	// EventsDLQ counts dispatch events parked on the Dead Letter Queue.
	EventsDLQ = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_dispatch_events_dlq_total",
			Help: "Total number of dispatch events moved to the Dead Letter Queue.",
		},
	)

	// KafkaPublishTotal counts event publishes, by result.
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_kafka_publish_total",
			Help: "Total number of dispatch events published to Kafka, by result (success, failure).",
		},
		[]string{"result"},
	)

	// HttpRequestsTotal counts API requests by endpoint and status text.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_http_requests_total",
			Help: "Total number of HTTP requests, by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	// HttpRequestDuration measures API request latency by endpoint.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_http_request_duration_seconds",
			Help:    "Histogram of HTTP request duration in seconds, by endpoint.",
			Buckets: durationBuckets,
		},
		[]string{"endpoint"},
	)
)

// MetricsHandler returns the HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObserveAttemptDuration simplifies observing delivery attempt duration.
func ObserveAttemptDuration(channel string, success bool, start time.Time) {
	duration := time.Since(start).Seconds()
	successStr := "false"
	if success {
		successStr = "true"
	}
	AttemptDuration.WithLabelValues(channel, successStr).Observe(duration)
}

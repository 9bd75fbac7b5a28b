package metrics

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsHandler(t *testing.T) {
	h := MetricsHandler()
	assert.NotNil(t, h)
	assert.Implements(t, (*http.Handler)(nil), h)
}

func TestObserveAttemptDuration(t *testing.T) {
	tests := []struct {
		name     string
		channel  string
		success  bool
		duration time.Duration
	}{
		{
			name:     "Success Email Short Duration",
			channel:  "EMAIL",
			success:  true,
			duration: 100 * time.Millisecond,
		},
		{
			name:     "Failure SMS Long Duration",
			channel:  "SMS",
			success:  false,
			duration: 3 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()

			histVec := prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "test_attempt_duration_seconds",
					Help:    "test histogram",
					Buckets: durationBuckets,
				},
				[]string{"channel", "success"},
			)
			reg.MustRegister(histVec)

			successStr := "false"
			if tt.success {
				successStr = "true"
			}
			histVec.WithLabelValues(tt.channel, successStr).Observe(tt.duration.Seconds())

			count := testutil.CollectAndCount(reg, "test_attempt_duration_seconds")
			assert.Equal(t, 1, count)
		})
	}
}

func TestAttemptCountersHaveExpectedNames(t *testing.T) {
	// The dashboards key off these names; renaming them is a breaking change.
	for _, name := range []string{
		"notification_dispatches_received_total",
		"notification_channel_attempts_total",
		"notification_channel_attempts_skipped_total",
	} {
		assert.True(t, strings.HasPrefix(name, "notification_"))
	}

	AttemptsTotal.WithLabelValues("IN_APP", "DELIVERED").Inc()
	v := testutil.ToFloat64(AttemptsTotal.WithLabelValues("IN_APP", "DELIVERED"))
	assert.GreaterOrEqual(t, v, float64(1))
}

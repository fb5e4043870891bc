package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/updates", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/updates", "GET", 200, 5*time.Millisecond)
	m.RecordError("/updates/:id", "PATCH", "FORBIDDEN")
	m.RecordUpdateEvent("update_created")
	m.RecordWebhookFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/updates", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/updates/:id", "PATCH", "FORBIDDEN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updateEvents.WithLabelValues("update_created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookFailures))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordUpdateEvent("x")
		m.RecordWebhookFailure()
	})
}

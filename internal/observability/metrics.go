package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	updateEvents    *prometheus.CounterVec
	webhookFailures prometheus.Counter
}

// NewMetrics registers the collectors together with the Go and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daily_status",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "daily_status",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daily_status",
			Name:      "http_errors_total",
			Help:      "Error envelopes by route, method and error code.",
		}, []string{"route", "method", "code"}),
		updateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daily_status",
			Name:      "update_events_total",
			Help:      "Published update lifecycle events by type.",
		}, []string{"type"}),
		webhookFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "daily_status",
			Name:      "webhook_failures_total",
			Help:      "Webhook deliveries that failed after retries.",
		}),
	}
	registry.MustRegister(m.requests, m.requestDuration, m.errors, m.updateEvents, m.webhookFailures)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error envelope.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordUpdateEvent counts a published update event.
func (m *Metrics) RecordUpdateEvent(eventType string) {
	if m == nil {
		return
	}
	m.updateEvents.WithLabelValues(eventType).Inc()
}

// RecordWebhookFailure counts an undeliverable webhook.
func (m *Metrics) RecordWebhookFailure() {
	if m == nil {
		return
	}
	m.webhookFailures.Inc()
}

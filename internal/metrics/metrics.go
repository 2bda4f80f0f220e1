// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package metrics exposes Prometheus instrumentation for the webhook
// endpoint and the detection engine. Metrics are registered on the default
// registry through promauto and served at /metrics.
//
// Label values that originate from webhook payloads are limited to event
// types with a registered handler and to the fixed set of cause labels, so
// series cardinality stays bounded.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hookwatch_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookwatch_api_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_webhook_deliveries_total",
			Help: "Webhook deliveries by outcome (accepted, rejected, undecodable, too_large)",
		},
		[]string{"outcome"},
	)

	// Detection Metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_events_dispatched_total",
			Help: "Events routed by the dispatcher, by event type and result (clean, anomalous, unhandled, fault)",
		},
		[]string{"event", "result"},
	)

	AnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_anomalies_total",
			Help: "Rule firings by event type and cause",
		},
		[]string{"event", "cause"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_alerts_total",
			Help: "Alerts raised (one per event with at least one firing rule)",
		},
		[]string{"event"},
	)

	RuleFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_rule_faults_total",
			Help: "Rule predicates that panicked and were treated as no match",
		},
		[]string{"event", "cause"},
	)

	CorrelationEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hookwatch_repo_correlation_entries",
			Help: "Repository creation timestamps awaiting a matching deletion",
		},
	)

	// Alert Sink Metrics
	AlertLogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_alert_log_writes_total",
			Help: "Alert logger invocations by sink and status (success, error)",
		},
		[]string{"sink", "status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hookwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hookwatch_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordWebhookDelivery counts a delivery by outcome.
func RecordWebhookDelivery(outcome string) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordDispatch counts one dispatcher decision.
func RecordDispatch(event, result string) {
	EventsDispatched.WithLabelValues(event, result).Inc()
}

// RecordAlert counts an alert and each cause that contributed to it.
func RecordAlert(event string, causes []string) {
	AlertsTotal.WithLabelValues(event).Inc()
	for _, cause := range causes {
		AnomaliesTotal.WithLabelValues(event, cause).Inc()
	}
}

// RecordRuleFault counts a predicate panic.
func RecordRuleFault(event, cause string) {
	RuleFaults.WithLabelValues(event, cause).Inc()
}

// SetCorrelationEntries publishes the current size of the creation-time table.
func SetCorrelationEntries(n int) {
	CorrelationEntries.Set(float64(n))
}

// RecordAlertLogWrite counts one alert logger call.
func RecordAlertLogWrite(sink string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	AlertLogWrites.WithLabelValues(sink, status).Inc()
}

// RecordCircuitBreakerTransition updates the state gauge and transition counter.
// States follow gobreaker's numbering: 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name string, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package api

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Health serves liveness and readiness probes.
type Health struct {
	startTime  time.Time
	ready      atomic.Bool
	eventTypes []string
}

// NewHealth creates a Health that starts out not ready.
func NewHealth(eventTypes []string) *Health {
	return &Health{
		startTime:  time.Now(),
		eventTypes: append([]string(nil), eventTypes...),
	}
}

// SetReady flips the readiness probe. It is set once the listener is up and
// cleared when shutdown begins so load balancers drain the instance.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Ready reports the current readiness.
func (h *Health) Ready() bool {
	return h.ready.Load()
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of readiness
func (h *Health) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, &apiResponse{
		Status: statusOK,
		Data: map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only while the server accepts webhooks
func (h *Health) HealthReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !h.Ready() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &apiResponse{
		Status: status,
		Data: map[string]any{
			"event_types": h.eventTypes,
		},
	})
}

// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package api provides HTTP routing using Chi router.
//
// Routes:
//
//	POST <webhook path>        GitHub deliveries (default /webhook), rate limited per IP
//	GET  /api/v1/health/live   liveness probe
//	GET  /api/v1/health/ready  readiness probe
//	GET  /metrics              Prometheus metrics
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/hookwatch/internal/middleware"
	"github.com/tomtom215/hookwatch/internal/signature"
)

// RouterConfig wires the router to its collaborators.
type RouterConfig struct {
	// WebhookPath defaults to /webhook.
	WebhookPath string

	// MaxPayloadBytes defaults to DefaultMaxPayloadBytes.
	MaxPayloadBytes int64

	Verifier   *signature.Verifier
	Dispatcher EventDispatcher
	Health     *Health
	RateLimit  RateLimitConfig

	// Deliveries is optional. When set, redelivered GUIDs are acknowledged
	// without being evaluated again.
	Deliveries DeliveryGuard
}

// Router owns the HTTP handler tree.
type Router struct {
	webhookPath string
	webhook     *WebhookHandler
	health      *Health
	rateLimit   RateLimitConfig
}

// NewRouter validates cfg and creates the router.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Verifier == nil {
		return nil, errors.New("api: a signature verifier is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("api: an event dispatcher is required")
	}
	if cfg.WebhookPath == "" {
		cfg.WebhookPath = "/webhook"
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		return nil, errors.New("api: webhook path must start with /")
	}
	if cfg.Health == nil {
		cfg.Health = NewHealth(nil)
	}

	return &Router{
		webhookPath: cfg.WebhookPath,
		webhook:     NewWebhookHandler(cfg.Verifier, cfg.Dispatcher, cfg.Deliveries, cfg.MaxPayloadBytes),
		health:      cfg.Health,
		rateLimit:   cfg.RateLimit,
	}, nil
}

// Health returns the probe state shared with the server lifecycle.
func (router *Router) Health() *Health {
	return router.health
}

// Handler builds the chi handler tree.
func (router *Router) Handler() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(middleware.DefaultSlowRequestThreshold))
	r.Use(middleware.PrometheusMetrics)
	r.Use(APISecurityHeaders())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", router.health.HealthLive)
		r.Get("/ready", router.health.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.With(RateLimit(router.rateLimit)).Post(router.webhookPath, router.webhook.ServeHTTP)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, &apiResponse{Status: statusError, Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, &apiResponse{Status: statusError, Error: "Method not allowed"})
	})

	return r
}

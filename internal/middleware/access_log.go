// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/hookwatch/internal/logging"
)

// DefaultSlowRequestThreshold is the duration above which requests are logged at warn.
const DefaultSlowRequestThreshold = time.Second

// AccessLog logs one entry per request: debug for normal requests, warn for
// requests slower than slow, and warn for any 5xx response.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequestThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			logger := logging.Ctx(r.Context())
			event := logger.Debug()
			msg := "Request served"
			switch {
			case wrapper.statusCode >= http.StatusInternalServerError:
				event = logger.Warn()
				msg = "Request failed"
			case duration > slow:
				event = logger.Warn()
				msg = "Slow request detected"
			}

			event.
				Str("method", r.Method).
				Str("path", logging.SanitizeValue(r.URL.Path)).
				Int("status", wrapper.statusCode).
				Int64("duration_ms", duration.Milliseconds()).
				Str("remote_addr", r.RemoteAddr).
				Msg(msg)
		})
	}
}

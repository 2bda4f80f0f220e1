// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/hookwatch/internal/logging"
)

//nolint:paralleltest // replaces the global logger
func TestAccessLog_LevelBySeverity(t *testing.T) {
	var buf bytes.Buffer
	original := logging.Logger()
	prevLevel := zerolog.GlobalLevel()
	logging.SetLogger(logging.NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		logging.SetLogger(original)
		zerolog.SetGlobalLevel(prevLevel)
	})

	tests := []struct {
		name    string
		status  int
		delay   time.Duration
		wantMsg string
		level   string
	}{
		{"ok", http.StatusOK, 0, "Request served", "debug"},
		{"server error", http.StatusBadGateway, 0, "Request failed", "warn"},
		{"slow", http.StatusOK, 120 * time.Millisecond, "Slow request detected", "warn"},
	}

	for _, tt := range tests {
		buf.Reset()
		handler := AccessLog(60 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(tt.delay)
			w.WriteHeader(tt.status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/webhook", nil))

		out := buf.String()
		if !strings.Contains(out, tt.wantMsg) || !strings.Contains(out, `"level":"`+tt.level+`"`) {
			t.Errorf("%s: log output = %s", tt.name, out)
		}
	}
}

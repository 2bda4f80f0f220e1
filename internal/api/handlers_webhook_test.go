// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/hookwatch/internal/cache"
	"github.com/tomtom215/hookwatch/internal/detection"
	"github.com/tomtom215/hookwatch/internal/metrics"
	"github.com/tomtom215/hookwatch/internal/signature"
)

const testSecret = "s3cr3t-for-tests"

type recordingLogger struct {
	mu      sync.Mutex
	records []detection.AlertRecord
}

func (l *recordingLogger) Log(_ context.Context, r *detection.AlertRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *r)
	return nil
}

func (l *recordingLogger) Records() []detection.AlertRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]detection.AlertRecord(nil), l.records...)
}

type testServer struct {
	handler http.Handler
	router  *Router
	console *bytes.Buffer
	logger  *recordingLogger
}

func newTestServer(t *testing.T, mutate func(*RouterConfig)) *testServer {
	t.Helper()

	console := &bytes.Buffer{}
	logger := &recordingLogger{}
	alerter, err := detection.NewAlerter(detection.AlerterConfig{
		Output:   console,
		Logger:   logger,
		Now:      func() time.Time { return time.Date(2024, 6, 16, 14, 5, 9, 0, time.UTC) },
		Location: time.UTC,
	})
	require.NoError(t, err)

	dispatcher, err := detection.NewDispatcher(
		detection.NewPushHandler(alerter, time.UTC),
		detection.NewTeamHandler(alerter),
		detection.NewRepoHandler(alerter, detection.RepoConfig{}),
	)
	require.NoError(t, err)

	cfg := RouterConfig{
		Verifier:   signature.NewVerifier(testSecret),
		Dispatcher: dispatcher,
		Health:     NewHealth(dispatcher.EventTypes()),
		RateLimit:  RateLimitConfig{Disabled: true},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	router, err := NewRouter(cfg)
	require.NoError(t, err)

	return &testServer{
		handler: router.Handler(),
		router:  router,
		console: console,
		logger:  logger,
	}
}

func (s *testServer) deliver(event, body, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, event)
	req.Header.Set(HeaderDelivery, "72d3162e-cc78-11e3-81ab-4c9367dc0958")
	if sig != "" {
		req.Header.Set(signature.HeaderName, sig)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) deliverSigned(event, body string) *httptest.ResponseRecorder {
	return s.deliver(event, body, signature.Sign([]byte(body), testSecret))
}

func TestWebhook_TeamScenario(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.deliverSigned("team", `{"team":{"name":"hacker-club"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())

	assert.Equal(t, "at [16/06/2024-14:05:09] got anomaly due to : 1) hacker in the team name\n", s.console.String())
	records := s.logger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "team", records[0].EventName)
	assert.Equal(t, []string{detection.CauseHackerTeam}, records[0].Causes)
	assert.Equal(t, "hacker-club", records[0].Context.TeamName)

	rec = s.deliverSigned("team", `{"team":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.logger.Records(), 1, "a team without a name must not alert")
}

func TestWebhook_RepoCreateThenDelete(t *testing.T) {
	s := newTestServer(t, nil)

	created := `{"action":"created","repository":{"full_name":"octo/tmp-repo"}}`
	deleted := `{"action":"deleted","repository":{"full_name":"octo/tmp-repo"}}`

	require.Equal(t, http.StatusOK, s.deliverSigned("repository", created).Code)
	require.Equal(t, http.StatusOK, s.deliverSigned("repository", deleted).Code)

	records := s.logger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "repository", records[0].EventName)
	assert.Equal(t, []string{"a repository was deleted within 10 minutes"}, records[0].Causes)
}

func TestWebhook_SignatureRejected(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"team":{"name":"hacker-club"}}`

	tests := []struct {
		name string
		sig  string
	}{
		{"missing", ""},
		{"wrong secret", signature.Sign([]byte(body), "other")},
		{"no prefix", strings.TrimPrefix(signature.Sign([]byte(body), testSecret), signature.Prefix)},
		{"garbage", "sha256=zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeRejected))

			rec := s.deliver("team", body, tt.sig)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"status":"error","error":"Signature mismatch"}`, rec.Body.String())
			assert.InDelta(t, before+1, testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeRejected)), 0.001)
		})
	}

	assert.Empty(t, s.logger.Records())
	assert.Empty(t, s.console.String())
}

func TestWebhook_BodyTamperedAfterSigning(t *testing.T) {
	s := newTestServer(t, nil)
	sig := signature.Sign([]byte(`{"team":{"name":"blue"}}`), testSecret)

	rec := s.deliver("team", `{"team":{"name":"hacker"}}`, sig)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.logger.Records())
}

func TestWebhook_UnknownEventAccepted(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.deliverSigned("issues", `{"action":"opened","team":{"name":"hacker"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"received"}`, rec.Body.String())
	assert.Empty(t, s.logger.Records())
}

func TestWebhook_MalformedBodyAccepted(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{`not json`, `[1,2,3]`, `"team"`} {
		before := testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeMalformed))

		rec := s.deliverSigned("team", body)

		assert.Equal(t, http.StatusOK, rec.Code, body)
		assert.InDelta(t, before+1, testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeMalformed)), 0.001, body)
	}
	assert.Empty(t, s.logger.Records())
}

func TestWebhook_PayloadTooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.MaxPayloadBytes = 64
	})

	body := `{"team":{"name":"` + strings.Repeat("a", 128) + `"}}`
	rec := s.deliverSigned("team", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, s.logger.Records())
}

func TestWebhook_OnlyPOST(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhook", http.NoBody)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhook_CustomPath(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.WebhookPath = "/hooks/github"
	})

	body := `{"team":{"name":"hacker"}}`
	req := httptest.NewRequest(http.MethodPost, "/hooks/github", strings.NewReader(body))
	req.Header.Set(HeaderEvent, "team")
	req.Header.Set(signature.HeaderName, signature.Sign([]byte(body), testSecret))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.logger.Records(), 1)
}

func TestWebhook_RateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimit = RateLimitConfig{Requests: 2, Window: time.Minute}
	})

	body := `{"team":{"name":"blue"}}`
	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/webhook"))

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, s.deliverSigned("team", body).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("/webhook")), 0.001)
}

func TestWebhook_DuplicateDeliveryIgnored(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.Deliveries = cache.NewDeliveryCache(100, time.Hour)
	})
	body := `{"team":{"name":"hacker-club"}}`
	before := testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeDuplicate))

	first := s.deliverSigned("team", body)
	second := s.deliverSigned("team", body)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"status":"received"}`, second.Body.String())
	assert.Len(t, s.logger.Records(), 1, "a redelivery must not alert twice")
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.WebhookDeliveriesTotal.WithLabelValues(outcomeDuplicate)), 0.001)
}

func TestWebhook_ForgedDeliveryDoesNotPoisonGuard(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.Deliveries = cache.NewDeliveryCache(100, time.Hour)
	})
	body := `{"team":{"name":"hacker-club"}}`

	require.Equal(t, http.StatusUnauthorized, s.deliver("team", body, "sha256=00").Code)
	require.Equal(t, http.StatusOK, s.deliverSigned("team", body).Code)

	assert.Len(t, s.logger.Records(), 1)
}

func TestNewRouter_Validation(t *testing.T) {
	t.Parallel()

	dispatcher, err := detection.NewDispatcher()
	require.NoError(t, err)
	verifier := signature.NewVerifier(testSecret)

	tests := []struct {
		name string
		cfg  RouterConfig
	}{
		{"no verifier", RouterConfig{Dispatcher: dispatcher}},
		{"no dispatcher", RouterConfig{Verifier: verifier}},
		{"relative path", RouterConfig{Verifier: verifier, Dispatcher: dispatcher, WebhookPath: "webhook"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRouter(tt.cfg)
			assert.Error(t, err)
		})
	}
}

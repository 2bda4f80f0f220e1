// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

const (
	notifierSink        = "webhook"
	notifierBreakerName = "alert-webhook"

	// notifierTripAfter consecutive failures open the breaker.
	notifierTripAfter = 5
)

// WebhookConfig configures the outbound alert notifier.
type WebhookConfig struct {
	URL     string
	Headers map[string]string

	// Timeout bounds one POST. Defaults to 10s.
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client

	// BreakerTimeout is how long the breaker stays open. Defaults to 1m.
	BreakerTimeout time.Duration
}

// WebhookPayload is the JSON body POSTed for each alert.
type WebhookPayload struct {
	Alert     *AlertRecord `json:"alert"`
	EventType string       `json:"event_type"`
	Source    string       `json:"source"`
}

// WebhookNotifier POSTs alert records to an HTTP endpoint. Calls go through
// a circuit breaker so a dead endpoint fails fast instead of adding a full
// timeout to every alert. Failed deliveries are not retried.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookNotifier validates cfg and creates the notifier.
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid alert webhook url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = time.Minute
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	metrics.CircuitBreakerState.WithLabelValues(notifierBreakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        notifierBreakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= notifierTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	return &WebhookNotifier{
		url:     cfg.URL,
		headers: headers,
		client:  client,
		cb:      cb,
	}, nil
}

// Log implements AlertLogger.
func (n *WebhookNotifier) Log(ctx context.Context, record *AlertRecord) error {
	_, err := n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.send(ctx, record)
	})
	metrics.RecordAlertLogWrite(notifierSink, err)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("alert webhook unavailable: %w", err)
	}
	return err
}

// State returns the breaker state.
func (n *WebhookNotifier) State() gobreaker.State {
	return n.cb.State()
}

func (n *WebhookNotifier) send(ctx context.Context, record *AlertRecord) error {
	body, err := json.Marshal(WebhookPayload{
		Alert:     record,
		EventType: "anomaly_alert",
		Source:    "hookwatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

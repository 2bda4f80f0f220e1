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
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookwatch/internal/metrics"
)

const (
	discordSink = "discord"

	// discordColor is the embed accent (orange).
	discordColor = 0xFFA500

	// Discord rejects embed field values longer than this.
	discordFieldLimit = 1024
)

// DiscordConfig configures the Discord notifier.
type DiscordConfig struct {
	WebhookURL string

	// MinInterval is the minimum gap between two messages. Defaults to 1s.
	MinInterval time.Duration

	// Timeout bounds one POST. Defaults to 10s.
	Timeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// DiscordNotifier posts each alert to a Discord channel webhook as an embed.
// Messages are spaced at least MinInterval apart to stay under Discord's
// per-webhook rate limit; a caller whose context ends while waiting gets
// the context error.
type DiscordNotifier struct {
	webhookURL  string
	client      *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastSent time.Time
}

// NewDiscordNotifier validates cfg and creates the notifier.
func NewDiscordNotifier(cfg DiscordConfig) (*DiscordNotifier, error) {
	u, err := url.Parse(cfg.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("invalid discord webhook url")
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &DiscordNotifier{
		webhookURL:  cfg.WebhookURL,
		client:      client,
		minInterval: cfg.MinInterval,
	}, nil
}

// Log implements AlertLogger.
func (n *DiscordNotifier) Log(ctx context.Context, record *AlertRecord) error {
	err := n.send(ctx, record)
	metrics.RecordAlertLogWrite(discordSink, err)
	return err
}

func (n *DiscordNotifier) send(ctx context.Context, record *AlertRecord) error {
	if err := n.wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(discordWebhookPayload{
		Embeds: []discordEmbed{buildDiscordEmbed(record)},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// The URL embeds the webhook token, so it is stripped from the error.
		return fmt.Errorf("failed to send Discord webhook: %w", stripURL(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// wait reserves the next send slot, sleeping if the previous message was
// sent less than minInterval ago.
func (n *DiscordNotifier) wait(ctx context.Context) error {
	n.mu.Lock()
	now := time.Now()
	slot := n.lastSent.Add(n.minInterval)
	if slot.Before(now) {
		slot = now
	}
	n.lastSent = slot
	n.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildDiscordEmbed(record *AlertRecord) discordEmbed {
	var desc strings.Builder
	for i, cause := range record.Causes {
		if i > 0 {
			desc.WriteByte('\n')
		}
		fmt.Fprintf(&desc, "%d) %s", i+1, cause)
	}

	return discordEmbed{
		Title:       "GitHub anomaly: " + record.EventName,
		Description: desc.String(),
		Color:       discordColor,
		Timestamp:   record.Time.UTC().Format(time.RFC3339),
		Fields: []discordEmbedField{
			{Name: "Repository", Value: discordValue(record.Context.RepositoryName), Inline: true},
			{Name: "Pusher", Value: discordValue(record.Context.PusherName), Inline: true},
			{Name: "Team", Value: discordValue(record.Context.TeamName), Inline: true},
		},
		Footer: discordEmbedFooter{Text: "Hookwatch"},
	}
}

// discordValue keeps a field inside Discord's limits. Empty values are rejected
// by Discord, so they become NoneValue.
func discordValue(s string) string {
	if s == "" {
		return NoneValue
	}
	if len(s) > discordFieldLimit {
		return s[:discordFieldLimit-3] + "..."
	}
	return s
}

func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

// Discord webhook structures
type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

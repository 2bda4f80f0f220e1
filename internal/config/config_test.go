// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package config

import (
	"errors"
	"testing"
	"time"
)

func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.GitHub.WebhookSecret = "a-real-secret"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	if err := validTestConfig().Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"alert log disabled with None", func(c *Config) { c.AlertLog.Path = "None" }, false},
		{"alert log disabled with empty", func(c *Config) { c.AlertLog.Path = "" }, false},
		{"alert log txt", func(c *Config) { c.AlertLog.Path = "log.txt" }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"negative timeout", func(c *Config) { c.Server.Timeout = -time.Second }, true},
		{"webhook path without slash", func(c *Config) { c.GitHub.WebhookPath = "hook" }, true},
		{"tiny payload cap", func(c *Config) { c.GitHub.MaxPayloadBytes = 10 }, true},
		{"zero delete window", func(c *Config) { c.Detection.RepoDeleteWindow = 0 }, true},
		{"zero dedupe ttl", func(c *Config) { c.GitHub.DedupeTTL = 0 }, true},
		{"named timezone", func(c *Config) { c.Detection.Timezone = "UTC" }, false},
		{"bad timezone", func(c *Config) { c.Detection.Timezone = "Nowhere/Special" }, true},
		{"notify https with path", func(c *Config) { c.Notify.WebhookURL = "https://hooks.example.org/services/T0/B0" }, false},
		{"notify without host", func(c *Config) { c.Notify.WebhookURL = "https://" }, true},
		{"discord webhook", func(c *Config) { c.Notify.DiscordWebhookURL = "https://discord.com/api/webhooks/1/abc" }, false},
		{"discord ftp", func(c *Config) { c.Notify.DiscordWebhookURL = "ftp://discord.com/x" }, true},
		{"rate limit disabled ignores bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, false},
		{"rate limit zero requests", func(c *Config) { c.Security.RateLimitReqs = 0 }, true},
		{"log level warn", func(c *Config) { c.Logging.Level = "warn" }, false},
		{"log level unknown", func(c *Config) { c.Logging.Level = "chatty" }, true},
		{"log format console", func(c *Config) { c.Logging.Format = "console" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validTestConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_Secret(t *testing.T) {
	t.Parallel()

	for _, secret := range []string{"", "changeme", "REPLACE_WITH_SECRET", "your_secret_here"} {
		cfg := validTestConfig()
		cfg.GitHub.WebhookSecret = secret
		if err := cfg.Validate(); !errors.Is(err, ErrMissingSecret) {
			t.Errorf("secret %q: Validate() = %v, want ErrMissingSecret", secret, err)
		}
	}
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 5000, "0.0.0.0:5000"},
		{"", 8080, ":8080"},
		{"::1", 5000, "[::1]:5000"},
	}
	for _, tt := range tests {
		if got := (ServerConfig{Host: tt.host, Port: tt.port}).Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

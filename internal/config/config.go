// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package config loads Hookwatch configuration.
//
// Configuration Loading Order (Koanf v2), lowest to highest priority:
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML file (CONFIG_PATH, config.yaml, /etc/hookwatch/config.yaml)
//  3. Environment Variables: the names listed in envMappings
//  4. Overrides: values set by the command line
//
// The webhook secret is then resolved: GITHUB_SECRET wins, otherwise the
// secret file (private_config.json by default) is read. A Config returned by
// Load always carries a usable secret.
//
// Config is immutable after Load and safe for concurrent read access.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/hookwatch/internal/validation"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	GitHub    GitHubConfig    `koanf:"github"`
	AlertLog  AlertLogConfig  `koanf:"alert_log"`
	Detection DetectionConfig `koanf:"detection"`
	Notify    NotifyConfig    `koanf:"notify"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0s"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GitHubConfig holds webhook receiver settings.
type GitHubConfig struct {
	// WebhookPath is the route GitHub POSTs to.
	WebhookPath string `koanf:"webhook_path" validate:"required,startswith=/"`

	// WebhookSecret is the shared HMAC secret. When empty it is read from SecretFile.
	WebhookSecret string `koanf:"webhook_secret"`

	// SecretFile is a JSON file of the form {"GITHUB_SECRET": "..."}.
	SecretFile string `koanf:"secret_file"`

	// MaxPayloadBytes caps the request body. GitHub caps payloads at 25 MB.
	MaxPayloadBytes int64 `koanf:"max_payload_bytes" validate:"min=1024"`

	// DedupeDeliveries acknowledges a repeated X-GitHub-Delivery GUID
	// without evaluating it again.
	DedupeDeliveries bool `koanf:"dedupe_deliveries"`

	// DedupeTTL is how long a delivery GUID is remembered.
	DedupeTTL time.Duration `koanf:"dedupe_ttl" validate:"gt=0s"`
}

// AlertLogConfig configures the CSV alert log.
type AlertLogConfig struct {
	// Path of the CSV file. Empty or "None" disables the log.
	Path string `koanf:"path" validate:"alertlogpath"`
}

// Enabled reports whether alerts are persisted.
func (a AlertLogConfig) Enabled() bool {
	return a.Path != "" && a.Path != validation.DisabledValue
}

// DetectionConfig tunes the anomaly rules.
type DetectionConfig struct {
	// Timezone used for the push window and alert timestamps. "Local" uses the host zone.
	Timezone string `koanf:"timezone"`

	// RepoDeleteWindow is the creation-to-deletion gap that still raises an alert.
	RepoDeleteWindow time.Duration `koanf:"repo_delete_window" validate:"gt=0s"`
}

// Location resolves Timezone.
func (d DetectionConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || strings.EqualFold(d.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// NotifyConfig configures the optional outbound alert notifiers.
type NotifyConfig struct {
	// WebhookURL receives a JSON alert record per alert.
	WebhookURL string `koanf:"webhook_url"`

	// DiscordWebhookURL is a Discord channel webhook.
	DiscordWebhookURL string `koanf:"discord_webhook_url"`

	Timeout time.Duration `koanf:"timeout" validate:"gt=0s"`
}

// Enabled reports whether alerts are forwarded.
func (n NotifyConfig) Enabled() bool {
	return n.WebhookURL != ""
}

// DiscordEnabled reports whether alerts are posted to Discord.
func (n NotifyConfig) DiscordEnabled() bool {
	return n.DiscordWebhookURL != ""
}

// SecurityConfig holds rate limiting settings for the webhook route.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller includes file:line in every entry.
	Caller bool `koanf:"caller"`
}

// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/hookwatch/config.yaml",
	"/etc/hookwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Defaults shared with the command line help text.
const (
	DefaultPort            = 5000
	DefaultAlertLogPath    = "data.csv"
	DefaultSecretFile      = "private_config.json"
	DefaultWebhookPath     = "/webhook"
	DefaultMaxPayloadBytes = 25 << 20
)

// Overrides are applied after every other layer, keyed by koanf path
// (e.g. "server.port").
type Overrides map[string]any

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigFile skips the search and loads this file. It must exist.
	ConfigFile string

	// Overrides come from command line flags and arguments.
	Overrides Overrides
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            DefaultPort,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GitHub: GitHubConfig{
			WebhookPath:      DefaultWebhookPath,
			WebhookSecret:    "",
			SecretFile:       DefaultSecretFile,
			MaxPayloadBytes:  DefaultMaxPayloadBytes,
			DedupeDeliveries: true,
			DedupeTTL:        time.Hour,
		},
		AlertLog: AlertLogConfig{
			Path: DefaultAlertLogPath,
		},
		Detection: DetectionConfig{
			Timezone:         "Local",
			RepoDeleteWindow: 10 * time.Minute,
		},
		Notify: NotifyConfig{
			WebhookURL: "",
			Timeout:    10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, file, environment and
// overrides, resolves the webhook secret and validates the result.
//
// Precedence: Overrides > ENV > File > Defaults.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional unless named explicitly)
	configPath := opts.ConfigFile
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	} else {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	// GITHUB_SECRET -> github.webhook_secret, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Layer 4: command line
	keys := make([]string, 0, len(opts.Overrides))
	for key := range opts.Overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := k.Set(key, opts.Overrides[key]); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.resolveSecret(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Anything not listed is ignored so unrelated variables cannot leak into the config.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"github_secret":            "github.webhook_secret",
	"github_webhook_path":      "github.webhook_path",
	"github_secret_file":       "github.secret_file",
	"github_max_payload_bytes": "github.max_payload_bytes",
	"github_dedupe_deliveries": "github.dedupe_deliveries",
	"github_dedupe_ttl":        "github.dedupe_ttl",

	"alert_log_path": "alert_log.path",

	"detection_timezone": "detection.timezone",
	"repo_delete_window": "detection.repo_delete_window",

	"alert_webhook_url":     "notify.webhook_url",
	"alert_webhook_timeout": "notify.timeout",

	"alert_discord_webhook_url": "notify.discord_webhook_url",

	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - GITHUB_SECRET -> github.webhook_secret
//   - HTTP_PORT -> server.port
//   - ALERT_LOG_PATH -> alert_log.path
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

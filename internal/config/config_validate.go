// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Struct tags cover ranges and formats; the rest is checked by hand.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSecret(); err != nil {
		return err
	}

	if err := c.validateDetection(); err != nil {
		return err
	}

	if err := c.validateNotify(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateSecret rejects an empty secret or one that still holds a placeholder.
func (c *Config) validateSecret() error {
	if c.GitHub.WebhookSecret == "" {
		return fmt.Errorf("%w: set GITHUB_SECRET or %s", ErrMissingSecret, c.GitHub.SecretFile)
	}
	if containsPlaceholder(c.GitHub.WebhookSecret) {
		return fmt.Errorf("%w: GITHUB_SECRET contains a placeholder value - generate one with: openssl rand -hex 32", ErrMissingSecret)
	}
	return nil
}

// validateDetection checks the timezone can be loaded.
func (c *Config) validateDetection() error {
	if _, err := c.Detection.Location(); err != nil {
		return fmt.Errorf("DETECTION_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// validateNotify validates the outbound notifier URLs that are set.
func (c *Config) validateNotify() error {
	if c.Notify.Enabled() {
		if err := validateHTTPURL(c.Notify.WebhookURL, "ALERT_WEBHOOK_URL"); err != nil {
			return fmt.Errorf("ALERT_WEBHOOK_URL is invalid: %w", err)
		}
	}
	if c.Notify.DiscordEnabled() {
		if err := validateHTTPURL(c.Notify.DiscordWebhookURL, "ALERT_DISCORD_WEBHOOK_URL"); err != nil {
			return fmt.Errorf("ALERT_DISCORD_WEBHOOK_URL is invalid: %w", err)
		}
	}
	return nil
}

// validateHTTPURL requires an http or https scheme and a host. Paths and
// queries are allowed since chat and incident tools embed tokens in them.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// Rate limiting bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration (only if enabled)
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}

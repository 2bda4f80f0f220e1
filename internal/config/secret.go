// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// ErrMissingSecret is returned when no webhook secret can be found.
var ErrMissingSecret = errors.New("github webhook secret is not configured")

// secretFile is the layout of private_config.json.
type secretFile struct {
	GitHubSecret *string `json:"GITHUB_SECRET"`
}

// ReadSecretFile reads the webhook secret from a JSON file of the form
// {"GITHUB_SECRET": "..."}. Surrounding whitespace is trimmed.
func ReadSecretFile(path string) (string, error) {
	//nolint:gosec // path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read secret file: %w", err)
	}

	var sf secretFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("parse secret file %s: %w", path, err)
	}
	if sf.GitHubSecret == nil {
		return "", fmt.Errorf("%w: %s has no GITHUB_SECRET key", ErrMissingSecret, path)
	}

	secret := strings.TrimSpace(*sf.GitHubSecret)
	if secret == "" {
		return "", fmt.Errorf("%w: GITHUB_SECRET in %s is empty", ErrMissingSecret, path)
	}
	return secret, nil
}

// resolveSecret fills GitHub.WebhookSecret from the secret file when it was
// not provided directly.
func (c *Config) resolveSecret() error {
	if c.GitHub.WebhookSecret != "" {
		return nil
	}
	if c.GitHub.SecretFile == "" {
		return fmt.Errorf("%w: set GITHUB_SECRET or github.secret_file", ErrMissingSecret)
	}

	secret, err := ReadSecretFile(c.GitHub.SecretFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: set GITHUB_SECRET or create %s", ErrMissingSecret, c.GitHub.SecretFile)
		}
		return err
	}
	c.GitHub.WebhookSecret = secret
	return nil
}

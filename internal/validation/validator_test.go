// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type testServer struct {
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0s"`
	Path    string        `koanf:"webhook_path" validate:"required,startswith=/"`
}

type testConfig struct {
	Server   testServer `koanf:"server"`
	AlertLog string     `koanf:"alert_log" validate:"alertlogpath"`
	Zone     string     `koanf:"timezone" validate:"omitempty,timezone"`
	Format   string     `koanf:"format" validate:"oneof=json console"`
}

func validConfig() testConfig {
	return testConfig{
		Server:   testServer{Port: 5000, Timeout: time.Second, Path: "/webhook"},
		AlertLog: "data.csv",
		Zone:     "UTC",
		Format:   "json",
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := ValidateStruct(&cfg); err != nil {
		t.Errorf("ValidateStruct() = %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*testConfig)
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "port too high",
			mutate:    func(c *testConfig) { c.Server.Port = 70000 },
			wantField: "server.port",
			wantTag:   "max",
			wantMsg:   "server.port must be at most 65535",
		},
		{
			name:      "zero timeout",
			mutate:    func(c *testConfig) { c.Server.Timeout = 0 },
			wantField: "server.timeout",
			wantTag:   "gt",
		},
		{
			name:      "relative webhook path",
			mutate:    func(c *testConfig) { c.Server.Path = "webhook" },
			wantField: "server.webhook_path",
			wantTag:   "startswith",
		},
		{
			name:      "alert log not csv",
			mutate:    func(c *testConfig) { c.AlertLog = "alerts.txt" },
			wantField: "alert_log",
			wantTag:   "alertlogpath",
			wantMsg:   `alert_log must name a .csv file or be "None"`,
		},
		{
			name:      "unknown timezone",
			mutate:    func(c *testConfig) { c.Zone = "Mars/Olympus" },
			wantField: "timezone",
			wantTag:   "timezone",
		},
		{
			name:      "bad format",
			mutate:    func(c *testConfig) { c.Format = "xml" },
			wantField: "format",
			wantTag:   "oneof",
			wantMsg:   "format must be one of: json console",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)

			err := ValidateStruct(&cfg)
			var se *StructError
			if !errors.As(err, &se) {
				t.Fatalf("ValidateStruct() = %v, want *StructError", err)
			}
			if len(se.Errors()) != 1 {
				t.Fatalf("got %d errors: %v", len(se.Errors()), se)
			}
			fe := se.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if fe.Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", fe.Tag(), tt.wantTag)
			}
			if tt.wantMsg != "" && fe.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", fe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_AlertLogPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", DisabledValue, "data.csv", "/var/log/hookwatch/alerts.csv"} {
		cfg := validConfig()
		cfg.AlertLog = path
		if err := ValidateStruct(&cfg); err != nil {
			t.Errorf("alert log %q rejected: %v", path, err)
		}
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Format = ""

	err := ValidateStruct(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "server.port") || !strings.Contains(msg, "format") || !strings.Contains(msg, "; ") {
		t.Errorf("combined message = %q", msg)
	}
}

func TestStructError_Empty(t *testing.T) {
	t.Parallel()

	if got := (&StructError{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}

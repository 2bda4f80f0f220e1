// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package cli implements the hookwatch command line and wires the
// application together.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/hookwatch/internal/config"
	"github.com/tomtom215/hookwatch/internal/logging"
)

// Koanf keys the command line can override.
const (
	keyPort         = "server.port"
	keyAlertLogPath = "alert_log.path"
)

// RootOptions holds the command line flags.
type RootOptions struct {
	ConfigFile string
	Port       int
	AlertLog   string
}

// NewRootCommand creates the hookwatch command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hookwatch [port] [alert-log.csv|None]",
		Short: "Hookwatch - GitHub webhook anomaly detection",
		Long: `Hookwatch receives signed GitHub webhooks and raises an alert when an
event looks suspicious: code pushed between 14:00 and 16:00, a team whose
name contains "hacker", or a repository deleted shortly after it was created.

Alerts are printed to stdout and appended to a CSV file (data.csv by default).

The optional positional arguments are kept for compatibility: a numeric first
argument is the port, and a second argument containing ".csv" (or "None" to
disable the file) is the alert log. Flags take precedence over positional
arguments, and both take precedence over the config file and environment.

Example:
  hookwatch
  hookwatch 8080 alerts.csv
  hookwatch --port 8080 --alert-log None --config /etc/hookwatch/config.yaml`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, ignored := overridesFromArgs(args)
			for key, value := range overridesFromFlags(cmd, opts) {
				overrides[key] = value
			}

			cfg, err := config.Load(config.LoadOptions{
				ConfigFile: opts.ConfigFile,
				Overrides:  overrides,
			})
			if err != nil {
				return WrapExitError(ExitConfigError, "failed to load configuration", err)
			}

			logging.Init(logging.Config{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				Caller:    cfg.Logging.Caller,
				Timestamp: true,
				Output:    cmd.ErrOrStderr(),
			})
			for _, arg := range ignored {
				logging.Warn().Str("arg", logging.SanitizeValue(arg)).Msg("Ignoring unrecognized positional argument")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file (default: search "+config.ConfigPathEnvVar+", ./config.yaml, /etc/hookwatch/config.yaml)")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", config.DefaultPort, "HTTP listen port")
	cmd.Flags().StringVar(&opts.AlertLog, "alert-log", config.DefaultAlertLogPath, `CSV file for alert records, or "None" to disable`)

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("hookwatch exited with an error")
		return GetExitCode(err)
	}
	return ExitSuccess
}

// overridesFromArgs applies the positional contract: a numeric first
// argument is the port and a second argument is the alert log when it
// names a .csv file or is "None". Anything else is returned as ignored.
func overridesFromArgs(args []string) (overrides config.Overrides, ignored []string) {
	overrides = config.Overrides{}

	if len(args) > 0 {
		if port, ok := parsePort(args[0]); ok {
			overrides[keyPort] = port
		} else {
			ignored = append(ignored, args[0])
		}
	}
	if len(args) > 1 {
		if isAlertLogArg(args[1]) {
			overrides[keyAlertLogPath] = args[1]
		} else {
			ignored = append(ignored, args[1])
		}
	}

	return overrides, ignored
}

// overridesFromFlags returns only the flags the user actually set, so that
// flag defaults never mask the config file or environment.
func overridesFromFlags(cmd *cobra.Command, opts *RootOptions) config.Overrides {
	overrides := config.Overrides{}
	if cmd.Flags().Changed("port") {
		overrides[keyPort] = opts.Port
	}
	if cmd.Flags().Changed("alert-log") {
		overrides[keyAlertLogPath] = opts.AlertLog
	}
	return overrides
}

func parsePort(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return port, true
}

func isAlertLogArg(s string) bool {
	return s == "None" || strings.Contains(s, ".csv")
}

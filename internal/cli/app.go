// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/hookwatch/internal/alertlog"
	"github.com/tomtom215/hookwatch/internal/api"
	"github.com/tomtom215/hookwatch/internal/cache"
	"github.com/tomtom215/hookwatch/internal/config"
	"github.com/tomtom215/hookwatch/internal/detection"
	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/signature"
	"github.com/tomtom215/hookwatch/internal/supervisor"
	"github.com/tomtom215/hookwatch/internal/supervisor/services"
)

// app is the composed application.
type app struct {
	cfg        *config.Config
	csv        *alertlog.CSVLogger
	repo       *detection.RepoHandler
	dispatcher *detection.Dispatcher
	deliveries *cache.DeliveryCache
	router     *api.Router
	server     *http.Server
}

// newApp builds every component from cfg. Alert lines are written to out.
func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	a := &app{cfg: cfg}

	loc, err := cfg.Detection.Location()
	if err != nil {
		return nil, WrapExitError(ExitConfigError, "invalid detection timezone", err)
	}

	var sinks []detection.AlertLogger
	if cfg.AlertLog.Enabled() {
		a.csv, err = alertlog.NewCSVLogger(cfg.AlertLog.Path)
		if err != nil {
			return nil, WrapExitError(ExitConfigError, "failed to open alert log", err)
		}
		sinks = append(sinks, a.csv)
	} else {
		logging.Info().Msg("Alert log disabled, alerts go to stdout only")
	}

	if cfg.Notify.Enabled() {
		notifier, err := detection.NewWebhookNotifier(detection.WebhookConfig{
			URL:     cfg.Notify.WebhookURL,
			Timeout: cfg.Notify.Timeout,
		})
		if err != nil {
			a.close()
			return nil, WrapExitError(ExitConfigError, "invalid alert webhook", err)
		}
		sinks = append(sinks, notifier)
		logging.Info().Msg("Alert webhook notifier enabled")
	}

	if cfg.Notify.DiscordEnabled() {
		discord, err := detection.NewDiscordNotifier(detection.DiscordConfig{
			WebhookURL: cfg.Notify.DiscordWebhookURL,
			Timeout:    cfg.Notify.Timeout,
		})
		if err != nil {
			a.close()
			return nil, WrapExitError(ExitConfigError, "invalid Discord webhook", err)
		}
		sinks = append(sinks, discord)
		logging.Info().Msg("Discord notifier enabled")
	}

	alerter, err := detection.NewAlerter(detection.AlerterConfig{
		Output:   out,
		Logger:   detection.NewMultiLogger(sinks...),
		Location: loc,
	})
	if err != nil {
		a.close()
		return nil, WrapExitError(ExitConfigError, "failed to create alerter", err)
	}

	a.repo = detection.NewRepoHandler(alerter, detection.RepoConfig{DeleteWindow: cfg.Detection.RepoDeleteWindow})
	a.dispatcher, err = detection.NewDispatcher(
		detection.NewPushHandler(alerter, loc),
		detection.NewTeamHandler(alerter),
		a.repo,
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	var guard api.DeliveryGuard
	if cfg.GitHub.DedupeDeliveries {
		a.deliveries = cache.NewDeliveryCache(cache.DefaultCapacity, cfg.GitHub.DedupeTTL)
		guard = a.deliveries
	}

	a.router, err = api.NewRouter(api.RouterConfig{
		WebhookPath:     cfg.GitHub.WebhookPath,
		MaxPayloadBytes: cfg.GitHub.MaxPayloadBytes,
		Verifier:        signature.NewVerifier(cfg.GitHub.WebhookSecret),
		Dispatcher:      a.dispatcher,
		Health:          api.NewHealth(a.dispatcher.EventTypes()),
		Deliveries:      guard,
		RateLimit: api.RateLimitConfig{
			Requests: cfg.Security.RateLimitReqs,
			Window:   cfg.Security.RateLimitWindow,
			Disabled: cfg.Security.RateLimitDisabled,
		},
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// close releases the alert log. Safe to call more than once.
func (a *app) close() {
	if a.csv == nil {
		return
	}
	if err := a.csv.Close(); err != nil {
		logging.Warn().Err(err).Str("path", a.csv.Path()).Msg("Failed to close alert log")
	}
}

// run builds the application and serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := newApp(cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + time.Second,
	})
	tree.AddMonitorService(services.NewTableMonitorService(a.repo.Table(), 0, 0))
	if a.deliveries != nil {
		tree.AddMonitorService(services.NewDeliverySweepService(a.deliveries, 0))
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout).
		WithReadiness(a.router.Health().SetReady))

	logging.Info().
		Str("addr", a.server.Addr).
		Str("webhook_path", cfg.GitHub.WebhookPath).
		Strs("event_types", a.dispatcher.EventTypes()).
		Bool("alert_log", cfg.AlertLog.Enabled()).
		Msg("Starting hookwatch")

	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "supervisor tree stopped", err)
	}

	logging.Info().Msg("Hookwatch stopped")
	return nil
}

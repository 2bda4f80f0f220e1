// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

// alertTimeLayout renders the console timestamp as dd/mm/yyyy-HH:MM:SS.
const alertTimeLayout = "02/01/2006-15:04:05"

// AlerterConfig configures an Alerter.
type AlerterConfig struct {
	// Output receives one line per alert. Defaults to os.Stdout.
	Output io.Writer

	// Logger is optional. When set it receives one record per alert.
	Logger AlertLogger

	// Now defaults to time.Now.
	Now func() time.Time

	// Location is used for the console timestamp. Defaults to time.Local.
	Location *time.Location
}

// Alerter prints anomaly notices and forwards them to the optional logger.
type Alerter struct {
	out    io.Writer
	logger AlertLogger
	now    func() time.Time
	loc    *time.Location

	// mu keeps concurrent alert lines from interleaving.
	mu sync.Mutex
}

// NewAlerter validates cfg and creates an Alerter. A Logger that is a typed
// nil pointer cannot be called and is rejected with ErrLoggerMisconfigured.
func NewAlerter(cfg AlerterConfig) (*Alerter, error) {
	if cfg.Logger != nil && isNilLogger(cfg.Logger) {
		return nil, fmt.Errorf("%w: %T is nil", ErrLoggerMisconfigured, cfg.Logger)
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Alerter{
		out:    cfg.Output,
		logger: cfg.Logger,
		now:    cfg.Now,
		loc:    cfg.Location,
	}, nil
}

func isNilLogger(l AlertLogger) bool {
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// Alert prints the console line, then hands the record to the logger. The
// console line is written first and logger failures are reported, never
// returned, so persistence problems cannot hide an alert.
func (a *Alerter) Alert(ctx context.Context, eventName string, causes []string, payload Payload) {
	if len(causes) == 0 {
		return
	}
	at := a.now()

	a.mu.Lock()
	_, werr := fmt.Fprintln(a.out, FormatAlertLine(at.In(a.loc), causes))
	a.mu.Unlock()
	if werr != nil {
		logging.Ctx(ctx).Error().Err(werr).Msg("Failed to write alert line")
	}

	metrics.RecordAlert(eventName, causes)

	alertCtx := ContextFromPayload(payload)
	logging.Ctx(ctx).Warn().
		Str("event", eventName).
		Strs("causes", causes).
		Str("repository", logging.SanitizeValue(alertCtx.RepositoryName)).
		Str("pusher", logging.SanitizeValue(alertCtx.PusherName)).
		Str("team", logging.SanitizeValue(alertCtx.TeamName)).
		Msg("Anomaly detected")

	if a.logger == nil {
		return
	}

	record := &AlertRecord{
		EventName: eventName,
		Time:      at,
		Causes:    append([]string(nil), causes...),
		Context:   alertCtx,
	}
	if err := a.log(ctx, record); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("event", eventName).
			Msg("Failed to log alert")
	}
}

// log calls the logger, converting a panic into an error.
func (a *Alerter) log(ctx context.Context, record *AlertRecord) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("alert logger panicked: %v", rec)
		}
	}()
	return a.logger.Log(ctx, record)
}

// FormatAlertLine renders the console notice, for example
// "at [16/06/2024-14:05:09] got anomaly due to : 1) A 2) B".
func FormatAlertLine(at time.Time, causes []string) string {
	var b strings.Builder
	b.WriteString("at [")
	b.WriteString(at.Format(alertTimeLayout))
	b.WriteString("] got anomaly due to :")
	for i, cause := range causes {
		fmt.Fprintf(&b, " %d) %s", i+1, cause)
	}
	return b.String()
}

// ContextFromPayload extracts the alert context. Fields the payload does not
// carry are NoneValue.
func ContextFromPayload(p Payload) AlertContext {
	return AlertContext{
		RepositoryName: p.Text("repository", "full_name"),
		PusherName:     p.Text("pusher", "name"),
		TeamName:       p.Text("team", "name"),
	}
}

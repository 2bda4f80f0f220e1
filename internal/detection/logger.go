// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"context"
	"errors"
)

// MultiLogger fans one alert record out to several loggers. Every member is
// called even when an earlier one fails; the failures are joined.
type MultiLogger []AlertLogger

// NewMultiLogger drops nil members. It returns nil when nothing is left, so
// the result can be passed straight to AlerterConfig.Logger.
func NewMultiLogger(loggers ...AlertLogger) AlertLogger {
	var m MultiLogger
	for _, l := range loggers {
		if l != nil && !isNilLogger(l) {
			m = append(m, l)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	default:
		return m
	}
}

// Log implements AlertLogger.
func (m MultiLogger) Log(ctx context.Context, record *AlertRecord) error {
	var errs []error
	for _, l := range m {
		if err := l.Log(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

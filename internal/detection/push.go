// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"math"
	"time"
)

// Push window bounds, in hours of the local day. The window is half-open.
const (
	pushWindowStartHour = 14
	pushWindowEndHour   = 16
)

// PushHandler flags pushes made during the afternoon policy window.
type PushHandler struct {
	*Handler
	loc *time.Location
}

// NewPushHandler creates the push handler. loc is the zone used to build the
// window; nil means time.Local.
func NewPushHandler(alerter *Alerter, loc *time.Location) *PushHandler {
	if loc == nil {
		loc = time.Local
	}
	h := &PushHandler{
		Handler: NewHandler(EventPush, alerter),
		loc:     loc,
	}
	h.mustAddRule(CausePushWindow, func(p Payload) bool {
		return PushedInWindow(p, h.loc)
	})
	return h
}

// PushedInWindow reports whether repository.pushed_at (epoch seconds) falls
// in [14:00, 16:00) of its own day in loc. A missing or zero timestamp never
// matches.
func PushedInWindow(p Payload, loc *time.Location) bool {
	ts, ok := p.Number("repository", "pushed_at")
	if !ok || ts == 0 {
		return false
	}
	if loc == nil {
		loc = time.Local
	}

	sec, frac := math.Modf(ts)
	pushed := time.Unix(int64(sec), int64(frac*float64(time.Second))).In(loc)

	y, m, d := pushed.Date()
	start := time.Date(y, m, d, pushWindowStartHour, 0, 0, 0, loc)
	end := time.Date(y, m, d, pushWindowEndHour, 0, 0, 0, loc)

	return !pushed.Before(start) && pushed.Before(end)
}

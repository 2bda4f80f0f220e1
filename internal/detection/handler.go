// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"context"
	"fmt"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

// Handler is the shared evaluation routine behind every event handler. It
// is bound to one event type and runs its rules in registration order.
//
// Rules are added during composition only; Evaluate does not lock, so
// AddRule must not race with evaluation.
type Handler struct {
	eventType string
	rules     []Rule
	alerter   *Alerter
}

// NewHandler creates a handler for eventType. A nil alerter makes the
// handler report causes without raising alerts.
func NewHandler(eventType string, alerter *Alerter) *Handler {
	return &Handler{
		eventType: eventType,
		alerter:   alerter,
	}
}

// AddRule appends a rule. Cause labels are unique per handler.
func (h *Handler) AddRule(cause string, match Predicate) error {
	if cause == "" || match == nil {
		return ErrInvalidRule
	}
	for _, r := range h.rules {
		if r.Cause == cause {
			return fmt.Errorf("%w: %q", ErrDuplicateCause, cause)
		}
	}
	h.rules = append(h.rules, Rule{Cause: cause, Match: match})
	return nil
}

// mustAddRule is used by the built-in handlers, whose labels are constants.
func (h *Handler) mustAddRule(cause string, match Predicate) {
	if err := h.AddRule(cause, match); err != nil {
		panic(err)
	}
}

// EventType returns the event type this handler accepts.
func (h *Handler) EventType() string {
	return h.eventType
}

// Causes returns the registered cause labels in evaluation order.
func (h *Handler) Causes() []string {
	causes := make([]string, len(h.rules))
	for i, r := range h.rules {
		causes[i] = r.Cause
	}
	return causes
}

// Evaluate runs every rule against payload and alerts when at least one
// matched. Payloads for other event types are ignored. The returned slice
// lists the matched causes in registration order and is nil when none fired.
func (h *Handler) Evaluate(ctx context.Context, eventType string, payload Payload) []string {
	if eventType != h.eventType {
		return nil
	}

	var causes []string
	for _, r := range h.rules {
		if h.match(ctx, r, payload) {
			causes = append(causes, r.Cause)
		}
	}

	if len(causes) > 0 && h.alerter != nil {
		h.alerter.Alert(ctx, h.eventType, causes, payload)
	}
	return causes
}

// match runs one predicate. A panicking predicate counts as no match so the
// remaining rules still run.
func (h *Handler) match(ctx context.Context, r Rule, payload Payload) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			matched = false
			metrics.RecordRuleFault(h.eventType, r.Cause)
			logging.Ctx(ctx).Error().
				Str("event", h.eventType).
				Str("cause", r.Cause).
				Interface("panic", rec).
				Msg("Rule predicate failed, treating as no match")
		}
	}()
	return r.Match(payload)
}

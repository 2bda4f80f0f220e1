// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"fmt"
	"time"
)

// DefaultDeleteWindow is the longest creation-to-deletion gap that still fires.
const DefaultDeleteWindow = 10 * time.Minute

// Repository event actions the correlation rule reacts to.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// RepoConfig configures the repository handler.
type RepoConfig struct {
	// DeleteWindow defaults to DefaultDeleteWindow. The bound is inclusive.
	DeleteWindow time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// RepoHandler correlates repository creation and deletion events.
type RepoHandler struct {
	*Handler
	table  *CreationTimeTable
	window time.Duration
	now    func() time.Time
}

// NewRepoHandler creates the repository handler with an empty creation table.
func NewRepoHandler(alerter *Alerter, cfg RepoConfig) *RepoHandler {
	if cfg.DeleteWindow <= 0 {
		cfg.DeleteWindow = DefaultDeleteWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &RepoHandler{
		Handler: NewHandler(EventRepository, alerter),
		table:   NewCreationTimeTable(),
		window:  cfg.DeleteWindow,
		now:     cfg.Now,
	}
	h.mustAddRule(RepoDeleteCause(h.window), h.deletedWithinWindow)
	return h
}

// Table exposes the creation table, mainly for tests and diagnostics.
func (h *RepoHandler) Table() *CreationTimeTable {
	return h.table
}

// deletedWithinWindow records "created" events and, on "deleted", consumes
// the matching entry. Only a deletion at most window after the latest
// recorded creation matches.
func (h *RepoHandler) deletedWithinWindow(p Payload) bool {
	name, ok := p.String("repository", "full_name")
	if !ok {
		return false
	}
	action, _ := p.String("action")

	switch action {
	case ActionCreated:
		h.table.Record(name, h.now())
		return false
	case ActionDeleted:
		created, ok := h.table.Consume(name)
		if !ok {
			return false
		}
		return h.now().Sub(created) <= h.window
	default:
		return false
	}
}

// RepoDeleteCause returns the cause label for a given window, for example
// "a repository was deleted within 10 minutes".
func RepoDeleteCause(window time.Duration) string {
	switch {
	case window == time.Minute:
		return "a repository was deleted within 1 minute"
	case window%time.Minute == 0:
		return fmt.Sprintf("a repository was deleted within %d minutes", int64(window/time.Minute))
	default:
		return fmt.Sprintf("a repository was deleted within %s", window)
	}
}

// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"context"
	"errors"
	"time"
)

// GitHub event types handled by this package (the X-GitHub-Event header).
const (
	EventPush       = "push"
	EventTeam       = "team"
	EventRepository = "repository"
)

// Cause labels reported when a rule fires.
const (
	CausePushWindow = "pushing code between 14:00-16:00"
	CauseHackerTeam = "hacker in the team name"
)

// NoneValue fills alert context fields the payload does not provide.
const NoneValue = "None"

var (
	// ErrLoggerMisconfigured is returned at construction when a logger was
	// supplied but cannot be called.
	ErrLoggerMisconfigured = errors.New("alert logger is misconfigured")

	// ErrDuplicateCause is returned when a handler already has a rule with the same label.
	ErrDuplicateCause = errors.New("duplicate cause label")

	// ErrInvalidRule is returned for a rule with an empty label or nil predicate.
	ErrInvalidRule = errors.New("rule needs a cause label and a predicate")

	// ErrDuplicateHandler is returned when two handlers claim the same event type.
	ErrDuplicateHandler = errors.New("handler already registered for event type")
)

// Predicate answers "is this payload anomalous?". Predicates must not block.
type Predicate func(Payload) bool

// Rule pairs a cause label with its predicate.
type Rule struct {
	Cause string
	Match Predicate
}

// EventHandler evaluates payloads for exactly one event type.
type EventHandler interface {
	// EventType returns the X-GitHub-Event value this handler accepts.
	EventType() string

	// Evaluate runs every rule against payload and returns the causes that
	// fired, raising an alert when there is at least one.
	Evaluate(ctx context.Context, eventType string, payload Payload) []string
}

// AlertContext identifies what an alert is about. Missing values are NoneValue.
type AlertContext struct {
	RepositoryName string `json:"repository_name"`
	PusherName     string `json:"pusher_name"`
	TeamName       string `json:"team_name"`
}

// AlertRecord is handed to the AlertLogger for every alert.
type AlertRecord struct {
	EventName string       `json:"event"`
	Time      time.Time    `json:"time"`
	Causes    []string     `json:"causes"`
	Context   AlertContext `json:"context"`
}

// AlertLogger persists or forwards alert records. Implementations may block;
// the alerter does not impose a timeout of its own.
type AlertLogger interface {
	Log(ctx context.Context, record *AlertRecord) error
}

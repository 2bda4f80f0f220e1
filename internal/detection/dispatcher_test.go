// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
)

type panicHandler struct{}

func (panicHandler) EventType() string { return "explode" }

func (panicHandler) Evaluate(context.Context, string, Payload) []string {
	panic("unexpected payload shape")
}

func newTestDispatcher(t *testing.T, out *bytes.Buffer, logger AlertLogger) *Dispatcher {
	t.Helper()
	alerter := newTestAlerter(t, out, logger)
	d, err := NewDispatcher(
		NewPushHandler(alerter, testZone),
		NewTeamHandler(alerter),
		NewRepoHandler(alerter, RepoConfig{}),
	)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestDispatcher_EventTypes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := newTestDispatcher(t, &out, nil)

	want := []string{EventPush, EventRepository, EventTeam}
	if got := d.EventTypes(); !reflect.DeepEqual(got, want) {
		t.Errorf("EventTypes() = %v, want %v", got, want)
	}
}

func TestDispatcher_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(NewTeamHandler(nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Register(NewTeamHandler(nil)); !errors.Is(err, ErrDuplicateHandler) {
		t.Errorf("Register duplicate error = %v, want ErrDuplicateHandler", err)
	}
	if err := d.Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}
	if _, err := NewDispatcher(NewTeamHandler(nil), NewTeamHandler(nil)); !errors.Is(err, ErrDuplicateHandler) {
		t.Errorf("NewDispatcher duplicate error = %v", err)
	}
}

func TestDispatcher_UnknownEventType(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger := &recordingLogger{}
	d := newTestDispatcher(t, &out, logger)

	got := d.Dispatch(context.Background(), "star", Payload{"team": map[string]any{"name": "hacker"}})

	if got != nil {
		t.Errorf("Dispatch(star) = %v, want nil", got)
	}
	if out.Len() != 0 || len(logger.Records()) != 0 {
		t.Error("unknown event type must not alert")
	}
}

func TestDispatcher_RoutesByEventType(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger := &recordingLogger{}
	d := newTestDispatcher(t, &out, logger)
	ctx := context.Background()

	hacker := Payload{"team": map[string]any{"name": "hacker-club"}}

	if got := d.Dispatch(ctx, EventTeam, hacker); !reflect.DeepEqual(got, []string{CauseHackerTeam}) {
		t.Errorf("Dispatch(team) = %v", got)
	}
	// The same payload under another event type goes to a handler that does not read team.name.
	if got := d.Dispatch(ctx, EventPush, hacker); got != nil {
		t.Errorf("Dispatch(push) = %v, want nil", got)
	}
	if got := d.Dispatch(ctx, EventTeam, Payload{"team": map[string]any{}}); got != nil {
		t.Errorf("Dispatch(team without name) = %v, want nil", got)
	}

	if n := len(logger.Records()); n != 1 {
		t.Errorf("log calls = %d, want 1", n)
	}
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := newTestDispatcher(t, &out, nil)
	if err := d.Register(panicHandler{}); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if got := d.Dispatch(ctx, "explode", Payload{}); got != nil {
		t.Errorf("Dispatch(explode) = %v, want nil", got)
	}

	// Later events are still evaluated.
	if got := d.Dispatch(ctx, EventTeam, Payload{"team": map[string]any{"name": "hacker"}}); len(got) != 1 {
		t.Errorf("Dispatch(team) after panic = %v", got)
	}
}

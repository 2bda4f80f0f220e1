// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

// Dispatch results exported as the "result" metric label.
const (
	DispatchEvaluated = "evaluated"
	DispatchAlerted   = "alerted"
	DispatchIgnored   = "ignored"
	DispatchFault     = "fault"
)

// otherEventLabel is the metric label shared by all unregistered event types,
// which keeps label cardinality bounded.
const otherEventLabel = "other"

// Dispatcher routes events to the handler registered for their type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]EventHandler
}

// NewDispatcher creates a dispatcher with the given handlers registered.
func NewDispatcher(handlers ...EventHandler) (*Dispatcher, error) {
	d := &Dispatcher{handlers: make(map[string]EventHandler)}
	for _, h := range handlers {
		if err := d.Register(h); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Register adds h. Each event type may have one handler.
func (d *Dispatcher) Register(h EventHandler) error {
	if h == nil {
		return fmt.Errorf("register handler: nil handler")
	}
	eventType := h.EventType()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[eventType]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, eventType)
	}
	d.handlers[eventType] = h
	return nil
}

// EventTypes returns the registered event types, sorted.
func (d *Dispatcher) EventTypes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch evaluates payload with the handler for eventType. Unknown event
// types are ignored. A panic inside the handler is logged and swallowed so
// one bad event cannot stop later ones. The matched causes are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload Payload) (causes []string) {
	d.mu.RLock()
	h, ok := d.handlers[eventType]
	d.mu.RUnlock()

	if !ok {
		metrics.RecordDispatch(otherEventLabel, DispatchIgnored)
		logging.Ctx(ctx).Debug().
			Str("event", logging.SanitizeValue(eventType)).
			Msg("No handler for event type, ignoring")
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			causes = nil
			metrics.RecordDispatch(eventType, DispatchFault)
			logging.Ctx(ctx).Error().
				Str("event", eventType).
				Interface("panic", rec).
				Msg("Handler failed while evaluating event")
		}
	}()

	causes = h.Evaluate(ctx, eventType, payload)
	if len(causes) > 0 {
		metrics.RecordDispatch(eventType, DispatchAlerted)
	} else {
		metrics.RecordDispatch(eventType, DispatchEvaluated)
	}
	return causes
}

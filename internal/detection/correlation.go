// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"sync"
	"time"

	"github.com/tomtom215/hookwatch/internal/metrics"
)

// CreationTimeTable maps repository full names to the instant their
// "created" event was observed. It is safe for concurrent use.
//
// Entries are removed only by Consume. Repositories that are created and
// never deleted stay in the table for the life of the process.
type CreationTimeTable struct {
	mu      sync.Mutex
	created map[string]time.Time
}

// NewCreationTimeTable creates an empty table.
func NewCreationTimeTable() *CreationTimeTable {
	return &CreationTimeTable{created: make(map[string]time.Time)}
}

// Record stores at as the creation instant for name, replacing any earlier
// unconsumed entry.
func (t *CreationTimeTable) Record(name string, at time.Time) {
	t.mu.Lock()
	t.created[name] = at
	n := len(t.created)
	t.mu.Unlock()

	metrics.SetCorrelationEntries(n)
}

// Consume removes and returns the creation instant for name.
func (t *CreationTimeTable) Consume(name string) (time.Time, bool) {
	t.mu.Lock()
	at, ok := t.created[name]
	if ok {
		delete(t.created, name)
	}
	n := len(t.created)
	t.mu.Unlock()

	if ok {
		metrics.SetCorrelationEntries(n)
	}
	return at, ok
}

// Len returns the number of pending creations.
func (t *CreationTimeTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.created)
}

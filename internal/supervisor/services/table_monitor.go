// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package services

import (
	"context"
	"time"

	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

// Monitor defaults.
const (
	DefaultMonitorInterval = time.Minute
	DefaultTableWarnSize   = 10000
)

// TableSizer reports how many entries a table holds.
type TableSizer interface {
	Len() int
}

// TableMonitorService periodically publishes the size of the repository
// creation-time table and warns once each time it crosses warnAt.
// Entries for repositories that are never deleted are never evicted, so
// this is the only signal that the table is growing.
type TableMonitorService struct {
	table    TableSizer
	interval time.Duration
	warnAt   int
	warned   bool
}

// NewTableMonitorService creates the monitor. Non-positive arguments take
// DefaultMonitorInterval and DefaultTableWarnSize.
func NewTableMonitorService(table TableSizer, interval time.Duration, warnAt int) *TableMonitorService {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	if warnAt <= 0 {
		warnAt = DefaultTableWarnSize
	}
	return &TableMonitorService{
		table:    table,
		interval: interval,
		warnAt:   warnAt,
	}
}

// Serve implements suture.Service.
func (m *TableMonitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *TableMonitorService) check() {
	n := m.table.Len()
	metrics.SetCorrelationEntries(n)

	switch {
	case n >= m.warnAt && !m.warned:
		m.warned = true
		logging.Warn().
			Int("entries", n).
			Int("threshold", m.warnAt).
			Msg("Repository creation-time table is large; created repositories are kept until deleted")
	case n < m.warnAt && m.warned:
		m.warned = false
		logging.Info().Int("entries", n).Msg("Repository creation-time table back under threshold")
	default:
		logging.Debug().Int("entries", n).Msg("Repository creation-time table size")
	}
}

// String names the service in supervisor logs.
func (m *TableMonitorService) String() string {
	return "correlation-table-monitor"
}

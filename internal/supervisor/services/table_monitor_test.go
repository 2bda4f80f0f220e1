// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/hookwatch/internal/metrics"
)

type fixedSizer struct {
	n atomic.Int64
}

func (f *fixedSizer) Len() int { return int(f.n.Load()) }

func TestNewTableMonitorService_Defaults(t *testing.T) {
	t.Parallel()

	m := NewTableMonitorService(&fixedSizer{}, 0, 0)
	if m.interval != DefaultMonitorInterval {
		t.Errorf("interval = %v, want %v", m.interval, DefaultMonitorInterval)
	}
	if m.warnAt != DefaultTableWarnSize {
		t.Errorf("warnAt = %d, want %d", m.warnAt, DefaultTableWarnSize)
	}
}

func TestTableMonitorService_WarnsOncePerCrossing(t *testing.T) {
	sizer := &fixedSizer{}
	m := NewTableMonitorService(sizer, time.Hour, 3)

	steps := []struct {
		size       int64
		wantWarned bool
	}{
		{1, false},
		{3, true},
		{5, true},
		{2, false},
		{4, true},
	}

	for _, step := range steps {
		sizer.n.Store(step.size)
		m.check()
		if m.warned != step.wantWarned {
			t.Errorf("size %d: warned = %v, want %v", step.size, m.warned, step.wantWarned)
		}
		if got := testutil.ToFloat64(metrics.CorrelationEntries); got != float64(step.size) {
			t.Errorf("size %d: gauge = %v", step.size, got)
		}
	}
}

func TestTableMonitorService_StopsOnCancel(t *testing.T) {
	t.Parallel()

	m := NewTableMonitorService(&fixedSizer{}, 5*time.Millisecond, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := m.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if m.String() != "correlation-table-monitor" {
		t.Errorf("String() = %q", m.String())
	}
}

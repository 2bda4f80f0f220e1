// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package services

import (
	"context"
	"time"

	"github.com/tomtom215/hookwatch/internal/logging"
)

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// DeliverySweepService evicts expired delivery GUIDs on an interval so the
// redelivery guard does not hold stale IDs until capacity pressure.
type DeliverySweepService struct {
	cache    Sweeper
	interval time.Duration
}

// NewDeliverySweepService creates the service. interval <= 0 uses
// DefaultMonitorInterval.
func NewDeliverySweepService(cache Sweeper, interval time.Duration) *DeliverySweepService {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &DeliverySweepService{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (s *DeliverySweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.cache.Sweep(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Expired delivery IDs swept")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *DeliverySweepService) String() string {
	return "delivery-sweep"
}

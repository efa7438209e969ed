// SocialRelay - Real-time Messaging and Notification Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/socialrelay

package services

import (
	"context"
	"time"

	"github.com/tomtom215/socialrelay/internal/logging"
)

// GarbageCollector is satisfied by *store.Store.
type GarbageCollector interface {
	RunGC() error
}

// BadgerGCService reclaims badger value log space on a fixed interval.
// GC errors are logged and never stop the service, since the next tick
// retries.
type BadgerGCService struct {
	store    GarbageCollector
	interval time.Duration
}

// NewBadgerGCService creates the service. A non-positive interval means
// five minutes.
func NewBadgerGCService(store GarbageCollector, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &BadgerGCService{store: store, interval: interval}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("badger value log GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("badger value log GC finished")
		}
	}
}

func (s *BadgerGCService) String() string {
	return "badger-gc"
}

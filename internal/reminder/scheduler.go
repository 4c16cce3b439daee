// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SchedulerConfig holds configuration for the reminder scheduler.
type SchedulerConfig struct {
	// Interval is how often to run a scan (default: 1 minute)
	Interval time.Duration

	// ScanTimeout bounds a single scan (default: 2 minutes)
	ScanTimeout time.Duration

	// CleanupInterval is how often expired key store claims are removed.
	// Zero disables the cleanup routine.
	CleanupInterval time.Duration

	// Enabled controls whether the scheduler is active
	Enabled bool
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:        time.Minute,
		ScanTimeout:     2 * time.Minute,
		CleanupInterval: 10 * time.Minute,
		Enabled:         true,
	}
}

// Scheduler runs the reminder scanner on a fixed interval.
type Scheduler struct {
	scanner *Scanner
	logger  zerolog.Logger
	config  SchedulerConfig

	// Runtime state
	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	cleanupCh chan struct{}
	lastRun   *ScanResult
}

// NewScheduler creates a new reminder scheduler.
func NewScheduler(scanner *Scanner, logger *zerolog.Logger, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = 2 * time.Minute
	}

	return &Scheduler{
		scanner: scanner,
		logger:  logger.With().Str("component", "reminder-scheduler").Logger(),
		config:  config,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Reminder scheduler disabled")
		go func() {
			defer close(s.doneCh)
			<-s.stopCh
		}()
		return nil
	}

	if keys := s.scanner.KeyStore(); keys != nil && s.config.CleanupInterval > 0 {
		s.cleanupCh = StartCleanupRoutine(keys, s.config.CleanupInterval, s.logger)
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("lookahead_minutes", s.scanner.lookahead).
		Int("batch_size", s.scanner.batchSize).
		Msg("Starting reminder scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping reminder scheduler...")
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	if s.cleanupCh != nil {
		close(s.cleanupCh)
		s.cleanupCh = nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Reminder scheduler stopped")
	return nil
}

// IsRunning reports whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastRun returns the result of the most recent successful scan, or nil.
func (s *Scheduler) LastRun() *ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.scan(ctx)

	for {
		select {
		case <-ticker.C:
			s.scan(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) scan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, s.config.ScanTimeout)
	defer cancel()

	result, err := s.scanner.Run(scanCtx, ScanOptions{})
	if err != nil {
		s.logger.Error().Err(err).Msg("Reminder scan failed")
		return
	}

	s.mu.Lock()
	s.lastRun = result
	s.mu.Unlock()

	if result.Dispatched > 0 {
		s.logger.Info().Int("dispatched", result.Dispatched).Msg("Calendar reminders dispatched")
	}
}

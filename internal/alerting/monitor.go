// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MonitorConfig holds configuration for the alert monitor.
type MonitorConfig struct {
	// Interval is how often a snapshot is fetched and evaluated (default: 1 minute)
	Interval time.Duration

	// Enabled controls whether the monitor is active
	Enabled bool

	Clock func() time.Time
}

// Monitor polls a SnapshotSource and evaluates each reading. When a fetch
// fails it evaluates the last good CollectedAt instead, so a dead metrics
// endpoint surfaces as metrics.stale.
type Monitor struct {
	source    SnapshotSource
	evaluator *Evaluator
	logger    zerolog.Logger
	config    MonitorConfig

	// Runtime state
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	lastGood   time.Time
	lastReport *Report
}

// NewMonitor creates a new alert monitor.
func NewMonitor(source SnapshotSource, evaluator *Evaluator, logger *zerolog.Logger, config MonitorConfig) *Monitor {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Monitor{
		source:    source,
		evaluator: evaluator,
		logger:    logger.With().Str("component", "alert-monitor").Logger(),
		config:    config,
	}
}

// Start begins the polling loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	if m.lastGood.IsZero() {
		// Staleness is measured from startup until the first good reading.
		m.lastGood = m.config.Clock().UTC()
	}
	m.mu.Unlock()

	if !m.config.Enabled {
		m.logger.Info().Msg("Alert monitor disabled")
		go func() {
			defer close(m.doneCh)
			<-m.stopCh
		}()
		return nil
	}

	m.logger.Info().Dur("interval", m.config.Interval).Msg("Starting alert monitor")
	go m.run(ctx)
	return nil
}

// Stop stops the polling loop and waits for it to complete.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	close(m.stopCh)
	<-m.doneCh

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	m.logger.Info().Msg("Alert monitor stopped")
	return nil
}

// IsRunning reports whether the polling loop is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastReport returns the most recent evaluation report, or nil.
func (m *Monitor) LastReport() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReport
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.Tick(ctx)

	for {
		select {
		case <-ticker.C:
			m.Tick(ctx)
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick performs one fetch and evaluation.
func (m *Monitor) Tick(ctx context.Context) *Report {
	now := m.config.Clock().UTC()

	snap, err := m.source.Fetch(ctx)

	m.mu.Lock()
	if err != nil || snap == nil {
		m.logger.Warn().Err(err).Msg("Metrics snapshot fetch failed; evaluating last good reading")
		snap = &MetricsSnapshot{CollectedAt: m.lastGood}
	} else if snap.CollectedAt.After(m.lastGood) {
		m.lastGood = snap.CollectedAt
	}
	m.mu.Unlock()

	report := m.evaluator.Evaluate(ctx, *snap, EvaluateOptions{Now: now})

	m.mu.Lock()
	m.lastReport = report
	m.mu.Unlock()

	if len(report.Dispatched) > 0 {
		m.logger.Info().Strs("alerts", report.Dispatched).Msg("Operational alerts dispatched")
	}
	return report
}

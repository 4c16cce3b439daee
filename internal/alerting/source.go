// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
)

// maxSnapshotBytes caps the metrics response body.
const maxSnapshotBytes = 1 << 20

// SnapshotSource produces metrics snapshots for the monitor.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*MetricsSnapshot, error)
}

// HTTPSourceConfig configures an HTTPSnapshotSource.
type HTTPSourceConfig struct {
	URL     string
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before a trial request.
	OpenTimeout time.Duration
}

// HTTPSnapshotSource fetches a JSON MetricsSnapshot over HTTP behind a
// circuit breaker, so a dead endpoint is not hammered every interval.
type HTTPSnapshotSource struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[*MetricsSnapshot]
	clock  func() time.Time
}

// NewHTTPSnapshotSource creates a breaker-wrapped HTTP snapshot source.
func NewHTTPSnapshotSource(cfg HTTPSourceConfig) *HTTPSnapshotSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = time.Minute
	}

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[*MetricsSnapshot](gobreaker.Settings{
		Name:        "metrics-snapshot",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
		},
	})

	return &HTTPSnapshotSource{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     cb,
		clock:  time.Now,
	}
}

// State returns the current breaker state.
func (s *HTTPSnapshotSource) State() gobreaker.State {
	return s.cb.State()
}

// Fetch retrieves one snapshot. A snapshot without collected_at is stamped
// with the fetch time.
func (s *HTTPSnapshotSource) Fetch(ctx context.Context) (*MetricsSnapshot, error) {
	snap, err := s.cb.Execute(func() (*MetricsSnapshot, error) {
		return s.fetch(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.AlertSnapshotFetches.WithLabelValues("breaker_open").Inc()
		return nil, err
	case err != nil:
		metrics.AlertSnapshotFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.AlertSnapshotFetches.WithLabelValues("success").Inc()
	return snap, nil
}

func (s *HTTPSnapshotSource) fetch(ctx context.Context) (*MetricsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch snapshot: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap MetricsSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.CollectedAt.IsZero() {
		snap.CollectedAt = s.clock().UTC()
	}
	return &snap, nil
}

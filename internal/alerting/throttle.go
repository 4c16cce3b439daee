// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between two dispatches of one alert key.
const DefaultCooldown = 5 * time.Minute

// Gate decides whether an alert key may be dispatched at now. A true result
// records now as the key's last dispatch; the check and the record are one
// atomic step.
type Gate interface {
	ShouldDispatch(ctx context.Context, key string, now time.Time) (bool, error)
}

// ThrottleGate is the in-process Gate. Each replica keeps its own cooldown
// clock, so N replicas may let up to N alerts through per cooldown window.
type ThrottleGate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
}

// NewThrottleGate creates a gate with the given cooldown. Non-positive
// values use DefaultCooldown.
func NewThrottleGate(cooldown time.Duration) *ThrottleGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &ThrottleGate{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// Cooldown returns the configured cooldown.
func (g *ThrottleGate) Cooldown() time.Duration {
	return g.cooldown
}

// ShouldDispatch suppresses key while now - lastDispatch < cooldown.
func (g *ThrottleGate) ShouldDispatch(ctx context.Context, key string, now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[key]; ok && now.Sub(last) < g.cooldown {
		return false, nil
	}
	g.last[key] = now
	return true, nil
}

// Reset forgets the last dispatch of key.
func (g *ThrottleGate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, key)
}

// Len returns the number of tracked keys.
func (g *ThrottleGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.last)
}

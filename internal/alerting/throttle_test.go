// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestThrottleGate_Cooldown(t *testing.T) {
	gate := NewThrottleGate(5 * time.Minute)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"first dispatch", t0, true},
		{"inside cooldown", t0.Add(4 * time.Minute), false},
		{"after cooldown", t0.Add(6 * time.Minute), true},
		{"cooldown restarts from last dispatch", t0.Add(10 * time.Minute), false},
		{"exactly cooldown after last dispatch", t0.Add(11 * time.Minute), true},
	}

	for _, tt := range tests {
		got, err := gate.ShouldDispatch(ctx, "metrics.stale", tt.at)
		if err != nil {
			t.Fatalf("%s: ShouldDispatch error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: ShouldDispatch(%s) = %v, want %v", tt.name, tt.at.Sub(t0), got, tt.want)
		}
	}
}

func TestThrottleGate_KeysIndependent(t *testing.T) {
	gate := NewThrottleGate(0)
	ctx := context.Background()
	now := time.Now()

	if gate.Cooldown() != DefaultCooldown {
		t.Errorf("Cooldown = %v, want %v", gate.Cooldown(), DefaultCooldown)
	}

	for _, key := range []string{KeyMetricsStale, KeyQueueBacklog} {
		ok, err := gate.ShouldDispatch(ctx, key, now)
		if err != nil || !ok {
			t.Errorf("ShouldDispatch(%s) = %v, %v; want true", key, ok, err)
		}
	}
	if gate.Len() != 2 {
		t.Errorf("Len = %d, want 2", gate.Len())
	}

	gate.Reset(KeyMetricsStale)
	if ok, _ := gate.ShouldDispatch(ctx, KeyMetricsStale, now); !ok {
		t.Error("ShouldDispatch after Reset = false, want true")
	}
}

func TestThrottleGate_ConcurrentCallersSingleWinner(t *testing.T) {
	gate := NewThrottleGate(time.Minute)
	now := time.Now()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := gate.ShouldDispatch(context.Background(), "k", now); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("winners = %d, want 1", wins.Load())
	}
}

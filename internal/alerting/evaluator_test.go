// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
)

type dispatchCall struct {
	event notification.Event
	opts  notification.DispatchOptions
}

// mockDispatcher records dispatch calls and can fail per recipient.
type mockDispatcher struct {
	mu      sync.Mutex
	calls   []dispatchCall
	failFor map[string]error
}

func (d *mockDispatcher) Dispatch(ctx context.Context, ev notification.Event, opts notification.DispatchOptions) (*models.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{event: ev, opts: opts})
	if err := d.failFor[ev.UserID]; err != nil {
		return nil, err
	}
	return &models.Notification{ID: "n", UserID: ev.UserID}, nil
}

func (d *mockDispatcher) snapshot() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

// errGate always fails.
type errGate struct{}

func (errGate) ShouldDispatch(ctx context.Context, key string, now time.Time) (bool, error) {
	return false, errors.New("redis unavailable")
}

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(gate Gate, dispatcher Dispatcher, recipients ...string) *Evaluator {
	logger := zerolog.Nop()
	return NewEvaluator(gate, dispatcher, &logger, EvaluatorConfig{
		Recipients: recipients,
		Clock:      func() time.Time { return evalNow },
	})
}

func keys(alerts []Alert) map[string]Severity {
	out := make(map[string]Severity, len(alerts))
	for _, a := range alerts {
		out[a.Key] = a.Severity
	}
	return out
}

func TestEvaluator_Conditions(t *testing.T) {
	e := newTestEvaluator(NewThrottleGate(0), &mockDispatcher{})
	fresh := evalNow.Add(-time.Minute)

	tests := []struct {
		name string
		snap MetricsSnapshot
		want map[string]Severity
	}{
		{
			name: "healthy",
			snap: MetricsSnapshot{CollectedAt: fresh, RateLimitBlocked: 10, WAFAutoBlockedIPs: 1, QueueDepth: 10},
			want: map[string]Severity{},
		},
		{
			name: "stale",
			snap: MetricsSnapshot{CollectedAt: evalNow.Add(-11 * time.Minute)},
			want: map[string]Severity{KeyMetricsStale: SeverityCritical},
		},
		{
			name: "exactly stale threshold is not stale",
			snap: MetricsSnapshot{CollectedAt: evalNow.Add(-10 * time.Minute)},
			want: map[string]Severity{},
		},
		{
			name: "rate limit surge",
			snap: MetricsSnapshot{CollectedAt: fresh, RateLimitBlocked: 100},
			want: map[string]Severity{KeyRateLimitSurge: SeverityWarning},
		},
		{
			name: "waf escalation",
			snap: MetricsSnapshot{CollectedAt: fresh, WAFAutoBlockedIPs: 5},
			want: map[string]Severity{KeyWAFEscalation: SeverityCritical},
		},
		{
			name: "queue warning",
			snap: MetricsSnapshot{CollectedAt: fresh, QueueDepth: 500},
			want: map[string]Severity{KeyQueueBacklog: SeverityWarning},
		},
		{
			name: "queue critical",
			snap: MetricsSnapshot{CollectedAt: fresh, QueueDepth: 2000},
			want: map[string]Severity{KeyQueueBacklog: SeverityCritical},
		},
		{
			name: "everything",
			snap: MetricsSnapshot{CollectedAt: evalNow.Add(-time.Hour), RateLimitBlocked: 500, WAFAutoBlockedIPs: 50, QueueDepth: 600},
			want: map[string]Severity{
				KeyMetricsStale:   SeverityCritical,
				KeyRateLimitSurge: SeverityWarning,
				KeyWAFEscalation:  SeverityCritical,
				KeyQueueBacklog:   SeverityWarning,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(e.Conditions(tt.snap, evalNow))
			if len(got) != len(tt.want) {
				t.Fatalf("conditions = %v, want %v", got, tt.want)
			}
			for k, sev := range tt.want {
				if got[k] != sev {
					t.Errorf("%s severity = %q, want %q", k, got[k], sev)
				}
			}
		})
	}
}

func TestEvaluator_DisabledThresholds(t *testing.T) {
	logger := zerolog.Nop()
	e := NewEvaluator(NewThrottleGate(0), &mockDispatcher{}, &logger, EvaluatorConfig{
		Thresholds: Thresholds{StaleAfter: time.Minute},
	})

	got := e.Conditions(MetricsSnapshot{CollectedAt: evalNow, RateLimitBlocked: 1e6, WAFAutoBlockedIPs: 1e6, QueueDepth: 1e6}, evalNow)
	if len(got) != 0 {
		t.Errorf("conditions = %v, want none with zero thresholds", got)
	}
}

func TestEvaluator_DispatchesToRecipients(t *testing.T) {
	dispatcher := &mockDispatcher{}
	e := newTestEvaluator(NewThrottleGate(0), dispatcher, "ops-1", "ops-2")

	report := e.Evaluate(context.Background(), MetricsSnapshot{
		CollectedAt:      evalNow.Add(-time.Hour),
		RateLimitBlocked: 100,
	}, EvaluateOptions{})

	if len(report.Dispatched) != 2 {
		t.Fatalf("dispatched = %v, want 2 keys", report.Dispatched)
	}

	calls := dispatcher.snapshot()
	if len(calls) != 4 {
		t.Fatalf("dispatch calls = %d, want 4", len(calls))
	}
	for _, c := range calls {
		if c.event.Category != models.CategorySystem {
			t.Errorf("category = %q, want system", c.event.Category)
		}
		switch c.event.Type {
		case TypePrefix + KeyMetricsStale:
			if c.event.Priority != models.PriorityUrgent || !c.opts.BypassQuietHours {
				t.Errorf("critical alert: priority %q bypass %v", c.event.Priority, c.opts.BypassQuietHours)
			}
		case TypePrefix + KeyRateLimitSurge:
			if c.event.Priority != models.PriorityHigh || c.opts.BypassQuietHours {
				t.Errorf("warning alert: priority %q bypass %v", c.event.Priority, c.opts.BypassQuietHours)
			}
		default:
			t.Errorf("unexpected type %q", c.event.Type)
		}
		if !c.opts.Now.Equal(evalNow) {
			t.Errorf("Now = %v, want %v", c.opts.Now, evalNow)
		}
	}
}

func TestEvaluator_ThrottlesRepeats(t *testing.T) {
	dispatcher := &mockDispatcher{}
	e := newTestEvaluator(NewThrottleGate(5*time.Minute), dispatcher, "ops-1")
	ctx := context.Background()
	snap := MetricsSnapshot{CollectedAt: evalNow, QueueDepth: 5000}

	first := e.Evaluate(ctx, snap, EvaluateOptions{Now: evalNow})
	second := e.Evaluate(ctx, snap, EvaluateOptions{Now: evalNow.Add(4 * time.Minute)})
	third := e.Evaluate(ctx, snap, EvaluateOptions{Now: evalNow.Add(6 * time.Minute)})

	if len(first.Dispatched) != 1 || len(second.Suppressed) != 1 || len(third.Dispatched) != 1 {
		t.Errorf("reports: first %+v second %+v third %+v", first, second, third)
	}
	if len(dispatcher.snapshot()) != 2 {
		t.Errorf("dispatch calls = %d, want 2", len(dispatcher.snapshot()))
	}
}

func TestEvaluator_ErrorsAreSwallowed(t *testing.T) {
	t.Run("dispatch failure", func(t *testing.T) {
		dispatcher := &mockDispatcher{failFor: map[string]error{"ops-1": errors.New("db down")}}
		e := newTestEvaluator(NewThrottleGate(0), dispatcher, "ops-1", "ops-2")

		report := e.Evaluate(context.Background(), MetricsSnapshot{CollectedAt: evalNow, WAFAutoBlockedIPs: 9}, EvaluateOptions{})
		if len(report.Failed) != 1 || report.Failed[0] != KeyWAFEscalation {
			t.Errorf("Failed = %v", report.Failed)
		}
		// The second recipient is still notified.
		if len(dispatcher.snapshot()) != 2 {
			t.Errorf("dispatch calls = %d, want 2", len(dispatcher.snapshot()))
		}
	})

	t.Run("gate failure", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		e := newTestEvaluator(errGate{}, dispatcher, "ops-1")

		report := e.Evaluate(context.Background(), MetricsSnapshot{CollectedAt: evalNow, QueueDepth: 5000, WAFAutoBlockedIPs: 9}, EvaluateOptions{})
		if len(report.Failed) != 2 {
			t.Errorf("Failed = %v, want both keys", report.Failed)
		}
		if len(dispatcher.snapshot()) != 0 {
			t.Error("nothing should be dispatched when the gate fails")
		}
	})
}

func TestEvaluator_NoRecipients(t *testing.T) {
	dispatcher := &mockDispatcher{}
	e := newTestEvaluator(NewThrottleGate(0), dispatcher)

	report := e.Evaluate(context.Background(), MetricsSnapshot{CollectedAt: evalNow, QueueDepth: 5000}, EvaluateOptions{})
	if len(report.Active) != 1 {
		t.Errorf("Active = %v", report.Active)
	}
	if len(dispatcher.snapshot()) != 0 {
		t.Error("no recipients means no dispatches")
	}
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
)

// Alert condition keys.
const (
	KeyMetricsStale   = "metrics.stale"
	KeyRateLimitSurge = "ratelimit.surge"
	KeyWAFEscalation  = "waf.escalation"
	KeyQueueBacklog   = "queue.backlog"
)

// TypePrefix prefixes the notification type of every operational alert.
const TypePrefix = "ops.alert."

// Severity of an active alert condition.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Priority maps severity to notification priority.
func (s Severity) Priority() models.NotificationPriority {
	if s == SeverityCritical {
		return models.PriorityUrgent
	}
	return models.PriorityHigh
}

// MetricsSnapshot is one reading of the operational metrics the evaluator
// watches.
type MetricsSnapshot struct {
	CollectedAt       time.Time `json:"collected_at"`
	RateLimitBlocked  int       `json:"rate_limit_blocked"`
	WAFAutoBlockedIPs int       `json:"waf_auto_blocked_ips"`
	QueueDepth        int       `json:"queue_depth"`
}

// Thresholds configure when each condition becomes active. A zero count
// threshold disables its condition.
type Thresholds struct {
	StaleAfter         time.Duration
	RateLimitBlocked   int
	WAFAutoBlockedIPs  int
	QueueDepthWarning  int
	QueueDepthCritical int
}

// DefaultThresholds returns the default alert thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StaleAfter:         10 * time.Minute,
		RateLimitBlocked:   100,
		WAFAutoBlockedIPs:  5,
		QueueDepthWarning:  500,
		QueueDepthCritical: 2000,
	}
}

// Alert is an active condition found in a snapshot.
type Alert struct {
	Key       string   `json:"key"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Value     float64  `json:"value"`
	Threshold float64  `json:"threshold"`
}

// Dispatcher creates notifications. Satisfied by *notification.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev notification.Event, opts notification.DispatchOptions) (*models.Notification, error)
}

// EvaluateOptions controls one evaluation.
type EvaluateOptions struct {
	// Now overrides the evaluation instant. Zero means the evaluator clock.
	Now time.Time
}

// Report summarizes one evaluation. It is informational only.
type Report struct {
	EvaluatedAt time.Time `json:"evaluated_at"`
	Active      []Alert   `json:"active"`
	Dispatched  []string  `json:"dispatched"`
	Suppressed  []string  `json:"suppressed"`
	Failed      []string  `json:"failed"`
}

// EvaluatorConfig holds evaluator settings.
type EvaluatorConfig struct {
	// Recipients are the user IDs notified of every dispatched alert.
	Recipients []string
	Thresholds Thresholds
	Clock      func() time.Time
}

// Evaluator turns metrics snapshots into throttled operational alerts.
type Evaluator struct {
	gate       Gate
	dispatcher Dispatcher
	recipients []string
	thresholds Thresholds
	clock      func() time.Time
	logger     zerolog.Logger
}

// NewEvaluator creates an evaluator. The gate is shared by every caller.
func NewEvaluator(gate Gate, dispatcher Dispatcher, logger *zerolog.Logger, cfg EvaluatorConfig) *Evaluator {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Evaluator{
		gate:       gate,
		dispatcher: dispatcher,
		recipients: append([]string(nil), cfg.Recipients...),
		thresholds: cfg.Thresholds,
		clock:      cfg.Clock,
		logger:     logger.With().Str("component", "alert-evaluator").Logger(),
	}
}

// Conditions returns the alert conditions active in snap at now.
func (e *Evaluator) Conditions(snap MetricsSnapshot, now time.Time) []Alert {
	t := e.thresholds
	var alerts []Alert

	if t.StaleAfter > 0 {
		age := now.Sub(snap.CollectedAt)
		if age > t.StaleAfter {
			alerts = append(alerts, Alert{
				Key:       KeyMetricsStale,
				Severity:  SeverityCritical,
				Title:     "Metrics endpoint stale",
				Message:   fmt.Sprintf("Last metrics snapshot is %s old (threshold %s).", age.Truncate(time.Second), t.StaleAfter),
				Value:     age.Seconds(),
				Threshold: t.StaleAfter.Seconds(),
			})
		}
	}

	if t.RateLimitBlocked > 0 && snap.RateLimitBlocked >= t.RateLimitBlocked {
		alerts = append(alerts, Alert{
			Key:       KeyRateLimitSurge,
			Severity:  SeverityWarning,
			Title:     "Rate limiter blocking surge",
			Message:   fmt.Sprintf("%d requests blocked by the rate limiter (threshold %d).", snap.RateLimitBlocked, t.RateLimitBlocked),
			Value:     float64(snap.RateLimitBlocked),
			Threshold: float64(t.RateLimitBlocked),
		})
	}

	if t.WAFAutoBlockedIPs > 0 && snap.WAFAutoBlockedIPs >= t.WAFAutoBlockedIPs {
		alerts = append(alerts, Alert{
			Key:       KeyWAFEscalation,
			Severity:  SeverityCritical,
			Title:     "WAF auto-block escalation",
			Message:   fmt.Sprintf("%d IPs auto-blocked by the WAF (threshold %d).", snap.WAFAutoBlockedIPs, t.WAFAutoBlockedIPs),
			Value:     float64(snap.WAFAutoBlockedIPs),
			Threshold: float64(t.WAFAutoBlockedIPs),
		})
	}

	switch {
	case t.QueueDepthCritical > 0 && snap.QueueDepth >= t.QueueDepthCritical:
		alerts = append(alerts, queueAlert(SeverityCritical, snap.QueueDepth, t.QueueDepthCritical))
	case t.QueueDepthWarning > 0 && snap.QueueDepth >= t.QueueDepthWarning:
		alerts = append(alerts, queueAlert(SeverityWarning, snap.QueueDepth, t.QueueDepthWarning))
	}

	return alerts
}

func queueAlert(severity Severity, depth, threshold int) Alert {
	return Alert{
		Key:       KeyQueueBacklog,
		Severity:  severity,
		Title:     "Queue backlog",
		Message:   fmt.Sprintf("Queue depth is %d (threshold %d).", depth, threshold),
		Value:     float64(depth),
		Threshold: float64(threshold),
	}
}

// Evaluate checks snap and dispatches every active condition the gate lets
// through. Gate and dispatch failures are logged and recorded in the report;
// they never abort the evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, snap MetricsSnapshot, opts EvaluateOptions) *Report {
	now := opts.Now
	if now.IsZero() {
		now = e.clock()
	}
	now = now.UTC()

	metrics.AlertEvaluations.Inc()
	report := &Report{
		EvaluatedAt: now,
		Active:      e.Conditions(snap, now),
		Dispatched:  []string{},
		Suppressed:  []string{},
		Failed:      []string{},
	}
	if report.Active == nil {
		report.Active = []Alert{}
	}

	for _, alert := range report.Active {
		metrics.AlertsTriggered.WithLabelValues(alert.Key, string(alert.Severity)).Inc()

		allowed, err := e.gate.ShouldDispatch(ctx, alert.Key, now)
		if err != nil {
			metrics.AlertDispatchErrors.WithLabelValues(alert.Key, "gate").Inc()
			e.logger.Error().Err(err).Str("alert", alert.Key).Msg("Alert throttle gate failed")
			report.Failed = append(report.Failed, alert.Key)
			continue
		}
		if !allowed {
			metrics.AlertsSuppressed.WithLabelValues(alert.Key).Inc()
			report.Suppressed = append(report.Suppressed, alert.Key)
			continue
		}

		if e.dispatch(ctx, alert, now) {
			report.Dispatched = append(report.Dispatched, alert.Key)
		} else {
			report.Failed = append(report.Failed, alert.Key)
		}
	}

	return report
}

// dispatch notifies every recipient and reports whether all succeeded.
func (e *Evaluator) dispatch(ctx context.Context, alert Alert, now time.Time) bool {
	if len(e.recipients) == 0 {
		e.logger.Warn().Str("alert", alert.Key).Msg("Alert active but no recipients configured")
		return true
	}

	ok := true
	for _, recipient := range e.recipients {
		_, err := e.dispatcher.Dispatch(ctx, notification.Event{
			UserID:   recipient,
			Category: models.CategorySystem,
			Priority: alert.Severity.Priority(),
			Type:     TypePrefix + alert.Key,
			Title:    alert.Title,
			Body:     alert.Message,
			Payload: map[string]interface{}{
				"alertKey":  alert.Key,
				"severity":  string(alert.Severity),
				"value":     alert.Value,
				"threshold": alert.Threshold,
			},
		}, notification.DispatchOptions{
			BypassQuietHours: alert.Severity == SeverityCritical,
			Now:              now,
		})
		if err != nil {
			ok = false
			metrics.AlertDispatchErrors.WithLabelValues(alert.Key, "dispatch").Inc()
			e.logger.Error().Err(err).
				Str("alert", alert.Key).
				Str("recipient", recipient).
				Msg("Failed to dispatch alert")
		}
	}
	return ok
}

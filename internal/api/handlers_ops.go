// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/alerting"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/reminder"
)

// ReminderScanRequest optionally overrides the scan parameters. Values
// below the scanner's floors are raised to them.
type ReminderScanRequest struct {
	LookaheadMinutes int        `json:"lookahead_minutes" validate:"gte=0,lte=10080"`
	BatchSize        int        `json:"batch_size" validate:"gte=0,lte=1000"`
	Now              *time.Time `json:"now,omitempty"`
}

// ScanReminders runs one reminder scan immediately. Scans are serialized
// with the scheduler's.
func (h *Handler) ScanReminders(w http.ResponseWriter, r *http.Request) {
	if h.deps.Reminders == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Reminder scanner unavailable")
		return
	}

	var req ReminderScanRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}

	opts := reminder.ScanOptions{
		LookaheadMinutes: req.LookaheadMinutes,
		BatchSize:        req.BatchSize,
	}
	if req.Now != nil {
		opts.Now = req.Now.UTC()
	}

	result, err := h.deps.Reminders.Run(r.Context(), opts)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Manual reminder scan failed")
		NewResponseWriter(w, r).InternalError("Reminder scan failed")
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// EvaluateAlerts evaluates a posted metrics snapshot. A snapshot without
// collected_at is treated as collected now.
func (h *Handler) EvaluateAlerts(w http.ResponseWriter, r *http.Request) {
	if h.deps.Alerts == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Alert evaluator unavailable")
		return
	}

	var snap alerting.MetricsSnapshot
	if !decodeBody(w, r, &snap, false) {
		return
	}
	if snap.RateLimitBlocked < 0 || snap.WAFAutoBlockedIPs < 0 || snap.QueueDepth < 0 {
		NewResponseWriter(w, r).BadRequest("Snapshot counters must not be negative")
		return
	}

	now := h.clock().UTC()
	if snap.CollectedAt.IsZero() {
		snap.CollectedAt = now
	}

	report := h.deps.Alerts.Evaluate(r.Context(), snap, alerting.EvaluateOptions{Now: now})
	NewResponseWriter(w, r).Success(report)
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"context"
	"time"

	"github.com/tomtom215/herald/internal/alerting"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
	"github.com/tomtom215/herald/internal/realtime"
	"github.com/tomtom215/herald/internal/reminder"
)

// NotificationService is the dispatcher surface used by the handlers.
type NotificationService interface {
	Dispatch(ctx context.Context, ev notification.Event, opts notification.DispatchOptions) (*models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (*models.Notification, error)
	Dismiss(ctx context.Context, userID, id string) (*models.Notification, error)
	List(ctx context.Context, userID string, filter notification.ListFilter) (*models.NotificationList, error)
}

// PreferenceStore reads and patches stored preferences.
type PreferenceStore interface {
	GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error)
	UpsertPreference(ctx context.Context, userID string, patch *models.PreferencePatch) (*models.NotificationPreference, error)
}

// CalendarStore accepts calendar events from the owning service.
type CalendarStore interface {
	UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) error
}

// ReminderScanner runs one reminder scan.
type ReminderScanner interface {
	Run(ctx context.Context, opts reminder.ScanOptions) (*reminder.ScanResult, error)
}

// AlertEvaluator evaluates one metrics snapshot.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, snap alerting.MetricsSnapshot, opts alerting.EvaluateOptions) *alerting.Report
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators behind the HTTP surface. Nil entries
// make their routes answer 503.
type Dependencies struct {
	Notifications NotificationService
	Preferences   PreferenceStore
	Calendar      CalendarStore
	Reminders     ReminderScanner
	Alerts        AlertEvaluator
	Database      HealthChecker
	Hub           *realtime.Hub

	// PreferenceDefaults is the policy reported for unset preference fields.
	// Nil means notification.DefaultPreference().
	PreferenceDefaults *notification.ResolvedPreference

	Version string
}

// Handler serves the Herald HTTP API.
type Handler struct {
	deps      Dependencies
	defaults  notification.ResolvedPreference
	startTime time.Time
	clock     func() time.Time
}

// NewHandler creates a handler over deps.
func NewHandler(deps Dependencies) *Handler {
	defaults := notification.DefaultPreference()
	if deps.PreferenceDefaults != nil {
		defaults = *deps.PreferenceDefaults
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{
		deps:      deps,
		defaults:  defaults,
		startTime: time.Now(),
		clock:     time.Now,
	}
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch Metrics
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_notifications_dispatched_total",
			Help: "Total notifications created, by initial status and category",
		},
		[]string{"status", "category"},
	)

	NotificationValidationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_notification_validation_failures_total",
			Help: "Total dispatch requests rejected by validation",
		},
	)

	NotificationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_notification_transitions_total",
			Help: "Total status transitions by target status and outcome",
		},
		[]string{"to", "result"}, // result: applied, noop, rejected, conflict
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_event_publish_errors_total",
			Help: "Total best-effort event publish failures",
		},
		[]string{"topic"},
	)

	// Reminder Metrics
	ReminderScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_reminder_scans_total",
			Help: "Total reminder scans by outcome",
		},
		[]string{"result"}, // success, error
	)

	ReminderScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "herald_reminder_scan_duration_seconds",
			Help:    "Duration of reminder scans in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RemindersDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_reminders_dispatched_total",
			Help: "Total calendar reminders dispatched",
		},
	)

	RemindersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_reminders_skipped_total",
			Help: "Total candidate reminders skipped, by reason",
		},
		[]string{"reason"},
	)

	// Idempotency Key Store Metrics
	KeyStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_keystore_operations_total",
			Help: "Total idempotency key store operations",
		},
		[]string{"backend", "operation", "result"},
	)

	// Alert Metrics
	AlertEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_alert_evaluations_total",
			Help: "Total metrics snapshot evaluations",
		},
	)

	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_alerts_triggered_total",
			Help: "Total alert conditions found active, by key and severity",
		},
		[]string{"key", "severity"},
	)

	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_alerts_suppressed_total",
			Help: "Total alerts suppressed by the throttle gate",
		},
		[]string{"key"},
	)

	AlertDispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_alert_dispatch_errors_total",
			Help: "Total alert gate or dispatch errors",
		},
		[]string{"key", "stage"}, // stage: gate, dispatch
	)

	AlertSnapshotFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_alert_snapshot_fetches_total",
			Help: "Total metrics snapshot fetches by outcome",
		},
		[]string{"result"}, // success, error, breaker_open
	)

	// Cache Metrics
	ListingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_listing_cache_hits_total",
			Help: "Total notification listing cache hits",
		},
	)

	ListingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herald_listing_cache_misses_total",
			Help: "Total notification listing cache misses",
		},
	)

	// Realtime Metrics
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "herald_realtime_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	RealtimeMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_realtime_messages_total",
			Help: "Total messages pushed to WebSocket clients",
		},
		[]string{"type"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "herald_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "herald_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herald_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordDispatch records a created notification.
func RecordDispatch(status, category string) {
	NotificationsDispatched.WithLabelValues(status, category).Inc()
}

// RecordTransition records the outcome of a read/dismiss request.
func RecordTransition(to, result string) {
	NotificationTransitions.WithLabelValues(to, result).Inc()
}

// RecordReminderScan records one scanner run.
func RecordReminderScan(duration time.Duration, err error) {
	ReminderScanDuration.Observe(duration.Seconds())
	if err != nil {
		ReminderScans.WithLabelValues("error").Inc()
		return
	}
	ReminderScans.WithLabelValues("success").Inc()
}

// RecordReminderSkip records a skipped reminder candidate.
func RecordReminderSkip(reason string) {
	RemindersSkipped.WithLabelValues(reason).Inc()
}

// RecordKeyStoreOp records an idempotency key store call.
func RecordKeyStoreOp(backend, operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	KeyStoreOperations.WithLabelValues(backend, operation, result).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

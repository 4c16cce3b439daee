// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package reminder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
)

const (
	DefaultLookaheadMinutes = 120
	MinLookaheadMinutes     = 5
	DefaultBatchSize        = 50
	MinBatchSize            = 1

	// windowPad widens the store query on both sides so events near the
	// window edges survive scan-interval jitter.
	windowPad = 10 * time.Minute

	// maxRemindersSent bounds the dedup marker list on each event.
	maxRemindersSent = 10

	// DefaultKeyTTL is how long a claim outlives the event start.
	DefaultKeyTTL = 24 * time.Hour

	// ReminderType is the notification type of calendar reminders.
	ReminderType = "calendar.reminder"

	reminderTitlePrefix = "Reminder: "

	// markerWriteTimeout bounds the marker write after a dispatch. The write
	// does not inherit the scan deadline.
	markerWriteTimeout = 5 * time.Second

	reminderKeyLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Skip reasons recorded in herald_reminders_skipped_total.
const (
	skipOutsideWindow = "outside_window"
	skipStarted       = "already_started"
	skipNotDue        = "not_due"
	skipAlreadySent   = "already_sent"
	skipClaimed       = "claimed"
	skipKeyStoreError = "keystore_error"
	skipNoUser        = "no_user"
	skipDispatchError = "dispatch_error"
)

// EventStore is the calendar event access the scanner needs.
type EventStore interface {
	FindDueCalendarEvents(ctx context.Context, window models.TimeWindow, limit int) ([]models.CalendarEvent, error)
	UpdateCalendarEventMetadata(ctx context.Context, id string, metadata map[string]interface{}) error
}

// Dispatcher creates notifications. Satisfied by *notification.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev notification.Event, opts notification.DispatchOptions) (*models.Notification, error)
}

// ReminderDescriptor describes one reminder computed during a scan.
type ReminderDescriptor struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	StartsAt     time.Time `json:"starts_at"`
	ReminderKey  string    `json:"reminder_key"`
	ReminderTime time.Time `json:"reminder_time"`
}

// ScanOptions tunes a single run. Zero values fall back to the scanner defaults.
type ScanOptions struct {
	LookaheadMinutes int
	BatchSize        int
	Now              time.Time
}

// ScanResult summarizes a run. Events lists the dispatched reminders.
type ScanResult struct {
	Dispatched int                  `json:"dispatched"`
	Window     models.TimeWindow    `json:"window"`
	Events     []ReminderDescriptor `json:"events"`
}

// ScannerConfig holds scanner defaults and optional collaborators.
type ScannerConfig struct {
	LookaheadMinutes int
	BatchSize        int

	// KeyStore, when set, is claimed before each dispatch.
	KeyStore KeyStore
	KeyTTL   time.Duration

	// DispatchRate limits reminder dispatches per second. Zero disables pacing.
	DispatchRate float64

	Clock func() time.Time
}

// Scanner dispatches due calendar reminders exactly once per reminder key.
// Runs are serialized.
type Scanner struct {
	store      EventStore
	dispatcher Dispatcher
	keys       KeyStore
	keyTTL     time.Duration
	limiter    *rate.Limiter
	lookahead  int
	batchSize  int
	clock      func() time.Time
	logger     zerolog.Logger

	runMu sync.Mutex
}

// NewScanner creates a reminder scanner.
func NewScanner(store EventStore, dispatcher Dispatcher, logger *zerolog.Logger, cfg ScannerConfig) *Scanner {
	if cfg.LookaheadMinutes <= 0 {
		cfg.LookaheadMinutes = DefaultLookaheadMinutes
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = DefaultKeyTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	var limiter *rate.Limiter
	if cfg.DispatchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.DispatchRate), cfg.BatchSize)
	}

	return &Scanner{
		store:      store,
		dispatcher: dispatcher,
		keys:       cfg.KeyStore,
		keyTTL:     cfg.KeyTTL,
		limiter:    limiter,
		lookahead:  cfg.LookaheadMinutes,
		batchSize:  cfg.BatchSize,
		clock:      cfg.Clock,
		logger:     logger.With().Str("component", "reminder-scanner").Logger(),
	}
}

// KeyStore returns the configured key store, or nil.
func (s *Scanner) KeyStore() KeyStore {
	return s.keys
}

// ReminderKey is the dedup key of a reminder: the event start as UTC
// ISO-8601 with milliseconds, a colon, and the reminder offset in minutes.
func ReminderKey(startsAt time.Time, reminderMinutes int) string {
	return startsAt.UTC().Format(reminderKeyLayout) + ":" + strconv.Itoa(reminderMinutes)
}

// Run performs one scan. Only a failure to fetch candidates is returned;
// per-event failures are logged and skipped.
func (s *Scanner) Run(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	result, err := s.run(ctx, opts)
	metrics.RecordReminderScan(time.Since(start), err)
	return result, err
}

func (s *Scanner) run(ctx context.Context, opts ScanOptions) (*ScanResult, error) {
	lookahead := opts.LookaheadMinutes
	if lookahead == 0 {
		lookahead = s.lookahead
	}
	if lookahead < MinLookaheadMinutes {
		lookahead = MinLookaheadMinutes
	}
	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = s.batchSize
	}
	if batchSize < MinBatchSize {
		batchSize = MinBatchSize
	}

	now := opts.Now
	if now.IsZero() {
		now = s.clock()
	}
	now = now.UTC()
	windowEnd := now.Add(time.Duration(lookahead) * time.Minute)

	result := &ScanResult{
		Window: models.TimeWindow{Start: now, End: windowEnd},
		Events: []ReminderDescriptor{},
	}

	candidates, err := s.store.FindDueCalendarEvents(ctx, models.TimeWindow{
		Start: now.Add(-windowPad),
		End:   windowEnd.Add(windowPad),
	}, batchSize)
	if err != nil {
		return nil, fmt.Errorf("find due calendar events: %w", err)
	}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		event := &candidates[i]
		if event.ReminderMinutes == nil {
			continue
		}

		desc := ReminderDescriptor{
			EventID:      event.ID,
			UserID:       event.UserID,
			Title:        event.Title,
			StartsAt:     event.StartsAt.UTC(),
			ReminderKey:  ReminderKey(event.StartsAt, *event.ReminderMinutes),
			ReminderTime: event.StartsAt.UTC().Add(-time.Duration(*event.ReminderMinutes) * time.Minute),
		}

		if reason := s.skipReason(event, desc, now, windowEnd); reason != "" {
			metrics.RecordReminderSkip(reason)
			continue
		}

		if s.dispatchOne(ctx, event, desc, now) {
			result.Dispatched++
			result.Events = append(result.Events, desc)
		}
	}

	s.logger.Debug().
		Int("candidates", len(candidates)).
		Int("dispatched", result.Dispatched).
		Time("window_start", now).
		Time("window_end", windowEnd).
		Msg("Reminder scan completed")

	return result, nil
}

// skipReason applies the cheap, store-free skip rules in order.
func (s *Scanner) skipReason(event *models.CalendarEvent, desc ReminderDescriptor, now, windowEnd time.Time) string {
	switch {
	case desc.StartsAt.After(windowEnd):
		return skipOutsideWindow
	case desc.StartsAt.Before(now):
		return skipStarted
	case desc.ReminderTime.After(now):
		return skipNotDue
	}
	for _, sent := range event.RemindersSent() {
		if sent == desc.ReminderKey {
			return skipAlreadySent
		}
	}
	return ""
}

// dispatchOne checks the user, claims, dispatches and marks a single reminder. It reports
// whether a notification was created.
func (s *Scanner) dispatchOne(ctx context.Context, event *models.CalendarEvent, desc ReminderDescriptor, now time.Time) bool {
	log := s.logger.With().
		Str("event_id", event.ID).
		Str("reminder_key", desc.ReminderKey).
		Logger()

	if event.UserID == "" {
		metrics.RecordReminderSkip(skipNoUser)
		log.Warn().Msg("Calendar event has no user; reminder skipped")
		return false
	}

	claimKey := event.ID + ":" + desc.ReminderKey
	if s.keys != nil {
		ttl := desc.StartsAt.Sub(now) + s.keyTTL
		if err := s.keys.Claim(ctx, claimKey, ttl); err != nil {
			if errors.Is(err, ErrAlreadyClaimed) {
				metrics.RecordReminderSkip(skipClaimed)
				return false
			}
			metrics.RecordReminderSkip(skipKeyStoreError)
			log.Error().Err(err).Msg("Failed to claim reminder key")
			return false
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.release(ctx, claimKey, log)
			return false
		}
	}

	if _, err := s.dispatcher.Dispatch(ctx, buildReminderEvent(event), notification.DispatchOptions{Now: now}); err != nil {
		s.release(ctx, claimKey, log)
		metrics.RecordReminderSkip(skipDispatchError)
		log.Error().Err(err).Msg("Failed to dispatch calendar reminder")
		return false
	}
	metrics.RemindersDispatched.Inc()

	// A dispatched reminder must be marked even if the scan context has
	// expired, or a restart with a non-durable key store sends it again.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markerWriteTimeout)
	defer cancel()
	if err := s.store.UpdateCalendarEventMetadata(markCtx, event.ID, markSent(event.Metadata, desc.ReminderKey, now)); err != nil {
		// The claim, when present, still guards against a resend.
		log.Error().Err(err).Msg("Failed to persist reminder marker")
	}
	return true
}

func (s *Scanner) release(ctx context.Context, key string, log zerolog.Logger) {
	if s.keys == nil {
		return
	}
	if err := s.keys.Release(ctx, key); err != nil {
		log.Warn().Err(err).Msg("Failed to release reminder key")
	}
}

func buildReminderEvent(event *models.CalendarEvent) notification.Event {
	var lines []string
	if event.Location != "" {
		lines = append(lines, "Location: "+event.Location)
	}
	if event.VideoConferenceLink != "" {
		lines = append(lines, "Join: "+event.VideoConferenceLink)
	}

	expiresAt := event.StartsAt.UTC()
	if event.EndsAt != nil {
		expiresAt = event.EndsAt.UTC()
	}

	return notification.Event{
		UserID:   event.UserID,
		Category: models.CategoryCalendar,
		Priority: models.PriorityHigh,
		Type:     ReminderType,
		Title:    reminderTitle(event.Title),
		Body:     strings.Join(lines, "\n"),
		Payload: map[string]interface{}{
			"eventId":         event.ID,
			"startsAt":        event.StartsAt.UTC().Format(reminderKeyLayout),
			"reminderMinutes": *event.ReminderMinutes,
		},
		ExpiresAt: &expiresAt,
	}
}

// reminderTitle prefixes title and shortens it so the result fits
// notification.MaxTitleLength. Calendar titles may use the whole limit.
func reminderTitle(title string) string {
	limit := notification.MaxTitleLength - utf8.RuneCountInString(reminderTitlePrefix)
	if utf8.RuneCountInString(title) > limit {
		runes := []rune(title)
		title = string(runes[:limit-1]) + "…"
	}
	return reminderTitlePrefix + title
}

// markSent returns a copy of metadata with key appended to remindersSent,
// keeping only the most recent entries, and lastReminderAt stamped.
func markSent(metadata map[string]interface{}, key string, now time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}

	current := models.CalendarEvent{Metadata: metadata}
	sent := append(append([]string(nil), current.RemindersSent()...), key)
	if len(sent) > maxRemindersSent {
		sent = sent[len(sent)-maxRemindersSent:]
	}

	out[models.MetadataKeyRemindersSent] = sent
	out[models.MetadataKeyLastReminderAt] = now.UTC().Format(reminderKeyLayout)
	return out
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/cache"
	"github.com/tomtom215/herald/internal/events"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/validation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// MaxTitleLength is the longest Event.Title accepted, in runes. It
	// matches the max tag on Event.Title.
	MaxTitleLength = 500
)

// Store defines the persistence operations the dispatcher needs.
// Getters return (nil, nil) when the record does not exist.
type Store interface {
	GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)

	// UpdateNotificationStatus moves id from -> to only if its status is
	// still from. It reports whether a row was updated.
	UpdateNotificationStatus(ctx context.Context, id string, from, to models.NotificationStatus, readAt *time.Time, updatedAt time.Time) (bool, error)

	ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
}

// Publisher fans notification changes out to realtime consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, n *models.Notification) error
}

// Event is a request to notify one user.
type Event struct {
	UserID    string                      `json:"user_id" validate:"required,max=128"`
	Category  models.NotificationCategory `json:"category" validate:"required,oneof=system calendar application workspace security billing social"`
	Priority  models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Type      string                      `json:"type" validate:"required,max=128"`
	Title     string                      `json:"title" validate:"required,max=500"`
	Body      string                      `json:"body,omitempty" validate:"max=10000"`
	Payload   map[string]interface{}      `json:"payload,omitempty"`
	ExpiresAt *time.Time                  `json:"expires_at,omitempty"`
}

// DispatchOptions controls a single dispatch.
type DispatchOptions struct {
	// BypassQuietHours delivers immediately even inside the quiet window.
	BypassQuietHours bool

	// Now overrides the dispatch instant. Zero means the dispatcher clock.
	Now time.Time
}

// ListFilter narrows a user's notification listing.
type ListFilter struct {
	Status models.NotificationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending delivered dismissed read"`
	Limit  int                       `json:"limit" validate:"gte=0,lte=200"`
	Offset int                       `json:"offset" validate:"gte=0"`
}

// Config holds optional collaborators for the dispatcher.
type Config struct {
	// Listings caches ListNotifications pages. Nil disables caching.
	Listings *cache.Cache

	// Publisher receives dispatched and updated notifications. Nil disables fan-out.
	Publisher Publisher

	// Defaults is the policy applied to unset preference fields.
	// Zero value means DefaultPreference().
	Defaults *ResolvedPreference

	// Clock returns the current time. Nil means time.Now.
	Clock func() time.Time
}

// Dispatcher is the single entry point for creating notifications.
type Dispatcher struct {
	store     Store
	listings  *cache.Cache
	publisher Publisher
	defaults  ResolvedPreference
	clock     func() time.Time
	logger    zerolog.Logger

	// generations counts listing invalidations per user. A page read before
	// an invalidation is not cached after it.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewDispatcher creates a dispatcher over store.
func NewDispatcher(store Store, logger *zerolog.Logger, cfg Config) *Dispatcher {
	defaults := DefaultPreference()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Dispatcher{
		store:       store,
		listings:    cfg.Listings,
		publisher:   cfg.Publisher,
		defaults:    defaults,
		clock:       clock,
		logger:      logger.With().Str("component", "notification-dispatcher").Logger(),
		generations: make(map[string]uint64),
	}
}

// Dispatch validates ev, decides its initial status from the recipient's
// preference and persists it. Validation failures return a *ValidationError
// before any store access.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event, opts DispatchOptions) (*models.Notification, error) {
	if verr := validation.ValidateStruct(&ev); verr != nil {
		metrics.NotificationValidationFailures.Inc()
		return nil, &ValidationError{Details: verr}
	}

	now := opts.Now
	if now.IsZero() {
		now = d.clock()
	}
	now = now.UTC()

	stored, err := d.store.GetPreference(ctx, ev.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preference for %s: %w", ev.UserID, err)
	}
	resolved := ResolvePreference(stored, d.defaults)

	quiet := false
	if !opts.BypassQuietHours {
		quiet = IsQuietHours(resolved, now)
	}
	status := InitialStatus(resolved.InApp, quiet, opts.BypassQuietHours)

	priority := ev.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	payload := make(map[string]interface{}, len(ev.Payload)+2)
	for k, v := range ev.Payload {
		payload[k] = v
	}
	payload[models.PayloadKeyChannels] = resolved.Channels()
	payload[models.PayloadKeyBypassQuietHours] = opts.BypassQuietHours

	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    ev.UserID,
		Category:  ev.Category,
		Priority:  priority,
		Type:      ev.Type,
		Title:     ev.Title,
		Body:      ev.Body,
		Payload:   payload,
		Status:    status,
		ExpiresAt: ev.ExpiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == models.StatusDelivered {
		deliveredAt := now
		n.DeliveredAt = &deliveredAt
	}

	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	metrics.RecordDispatch(string(n.Status), string(n.Category))
	d.logger.Debug().
		Str("notification_id", n.ID).
		Str("user_id", n.UserID).
		Str("type", n.Type).
		Str("status", string(n.Status)).
		Bool("quiet", quiet).
		Bool("bypass", opts.BypassQuietHours).
		Msg("Notification dispatched")

	d.invalidate(n.UserID)
	d.publish(ctx, events.TopicDispatched, n)

	return n, nil
}

// MarkRead moves a user's notification to read and stamps ReadAt.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	return d.transition(ctx, userID, id, models.StatusRead)
}

// Dismiss moves a user's notification to dismissed.
func (d *Dispatcher) Dismiss(ctx context.Context, userID, id string) (*models.Notification, error) {
	return d.transition(ctx, userID, id, models.StatusDismissed)
}

func (d *Dispatcher) transition(ctx context.Context, userID, id string, to models.NotificationStatus) (*models.Notification, error) {
	n, err := d.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if n.Status == to && to.Terminal() {
			metrics.RecordTransition(string(to), "noop")
			return n, nil
		}
		if attempt > 0 {
			// The status moved under us and not to where we wanted it.
			metrics.RecordTransition(string(to), "conflict")
			return nil, fmt.Errorf("%w: %s is now %s", ErrConflict, id, n.Status)
		}
		if err := Transition(n.Status, to); err != nil {
			metrics.RecordTransition(string(to), "rejected")
			return nil, err
		}

		now := d.clock().UTC()
		var readAt *time.Time
		if to == models.StatusRead {
			readAt = &now
		}

		updated, err := d.store.UpdateNotificationStatus(ctx, id, n.Status, to, readAt, now)
		if err != nil {
			return nil, fmt.Errorf("update notification %s: %w", id, err)
		}
		if updated {
			n.Status = to
			n.UpdatedAt = now
			if readAt != nil {
				n.ReadAt = readAt
			}
			metrics.RecordTransition(string(to), "applied")
			d.invalidate(userID)
			d.publish(ctx, events.TopicUpdated, n)
			return n, nil
		}

		// Lost the race: re-read once.
		if n, err = d.load(ctx, userID, id); err != nil {
			return nil, err
		}
	}
}

func (d *Dispatcher) load(ctx context.Context, userID, id string) (*models.Notification, error) {
	n, err := d.store.GetNotification(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	if n == nil || n.UserID != userID {
		return nil, ErrNotFound
	}
	return n, nil
}

// List returns a page of the user's notifications, newest first. Pages are
// served from the listing cache when one is configured.
func (d *Dispatcher) List(ctx context.Context, userID string, filter ListFilter) (*models.NotificationList, error) {
	if userID == "" {
		return nil, &ValidationError{}
	}
	if verr := validation.ValidateStruct(&filter); verr != nil {
		return nil, &ValidationError{Details: verr}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	key := cache.GenerateKey(ListingCachePrefix(userID), filter)
	gen := d.generation(userID)
	if d.listings != nil {
		if cached, ok := d.listings.Get(key); ok {
			if list, ok := cached.(*models.NotificationList); ok {
				metrics.ListingCacheHits.Inc()
				return list, nil
			}
		}
		metrics.ListingCacheMisses.Inc()
	}

	items, total, err := d.store.ListNotifications(ctx, models.NotificationFilter{
		UserID: userID,
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}

	list := &models.NotificationList{
		Notifications: items,
		TotalCount:    total,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}
	d.cacheIfCurrent(userID, gen, key, list)
	return list, nil
}

// ListingCachePrefix is the cache key prefix for a user's listing pages.
func ListingCachePrefix(userID string) string {
	return "notifications:" + userID + ":"
}

func (d *Dispatcher) generation(userID string) uint64 {
	d.genMu.Lock()
	defer d.genMu.Unlock()
	return d.generations[userID]
}

// cacheIfCurrent stores list unless userID was invalidated since gen was read.
func (d *Dispatcher) cacheIfCurrent(userID string, gen uint64, key string, list *models.NotificationList) {
	if d.listings == nil {
		return
	}
	d.genMu.Lock()
	defer d.genMu.Unlock()
	if d.generations[userID] != gen {
		return
	}
	d.listings.Set(key, list)
}

func (d *Dispatcher) invalidate(userID string) {
	if d.listings == nil {
		return
	}
	d.genMu.Lock()
	d.generations[userID]++
	d.genMu.Unlock()
	d.listings.DeletePrefix(ListingCachePrefix(userID))
}

// publish is best-effort; failures are counted and logged only.
func (d *Dispatcher) publish(ctx context.Context, topic string, n *models.Notification) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, topic, n); err != nil {
		metrics.EventPublishErrors.WithLabelValues(topic).Inc()
		d.logger.Warn().Err(err).
			Str("topic", topic).
			Str("notification_id", n.ID).
			Msg("Failed to publish notification event")
	}
}

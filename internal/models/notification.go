// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package models provides data structures shared across Herald packages.
//
// notification.go - Notification Records and Vocabularies
//
// A Notification is written once per dispatch decision. Its Status is chosen
// at creation time from the recipient's resolved preference and is only moved
// afterwards by explicit read/dismiss actions.
package models

import (
	"time"
)

// ============================================================================
// Vocabularies
// ============================================================================

// NotificationStatus is the lifecycle state of a notification.
type NotificationStatus string

const (
	// StatusPending means the notification is queued and not yet surfaced
	// (quiet hours were active when it was dispatched).
	StatusPending NotificationStatus = "pending"

	// StatusDelivered means the notification was surfaced in-app.
	StatusDelivered NotificationStatus = "delivered"

	// StatusDismissed is terminal. Set at creation when in-app delivery is
	// disabled, or later by an explicit dismiss.
	StatusDismissed NotificationStatus = "dismissed"

	// StatusRead is terminal.
	StatusRead NotificationStatus = "read"
)

// Valid reports whether s is a known status.
func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDelivered, StatusDismissed, StatusRead:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s NotificationStatus) Terminal() bool {
	return s == StatusRead || s == StatusDismissed
}

// NotificationCategory groups notifications by producing domain.
type NotificationCategory string

const (
	CategorySystem      NotificationCategory = "system"
	CategoryCalendar    NotificationCategory = "calendar"
	CategoryApplication NotificationCategory = "application"
	CategoryWorkspace   NotificationCategory = "workspace"
	CategorySecurity    NotificationCategory = "security"
	CategoryBilling     NotificationCategory = "billing"
	CategorySocial      NotificationCategory = "social"
)

// NotificationPriority is the urgency attached by the producer.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Payload keys written by the dispatcher for auditability.
const (
	PayloadKeyChannels         = "channels"
	PayloadKeyBypassQuietHours = "bypassQuietHours"
)

// ============================================================================
// Records
// ============================================================================

// DeliveryChannels is the snapshot of which channels were enabled for the
// recipient when a notification was dispatched.
type DeliveryChannels struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
	InApp bool `json:"inApp"`
}

// Notification is a persisted dispatch decision.
type Notification struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Category    NotificationCategory   `json:"category"`
	Priority    NotificationPriority   `json:"priority"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Body        string                 `json:"body,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Status      NotificationStatus     `json:"status"`
	DeliveredAt *time.Time             `json:"delivered_at,omitempty"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	ExpiresAt   *time.Time             `json:"expires_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NotificationFilter narrows a notification listing.
type NotificationFilter struct {
	UserID string
	Status NotificationStatus // empty matches all
	Limit  int
	Offset int
}

// NotificationList is a page of notifications for one user.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	TotalCount    int            `json:"total_count"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"
)

// Calendar event metadata keys maintained by the reminder scanner.
const (
	MetadataKeyRemindersSent  = "remindersSent"
	MetadataKeyLastReminderAt = "lastReminderAt"
)

// CalendarEvent is the subset of a calendar event the reminder scanner reads
// and writes. The event itself is owned by a collaborator service.
type CalendarEvent struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	Title               string                 `json:"title"`
	StartsAt            time.Time              `json:"starts_at"`
	EndsAt              *time.Time             `json:"ends_at,omitempty"`
	ReminderMinutes     *int                   `json:"reminder_minutes,omitempty"`
	Location            string                 `json:"location,omitempty"`
	VideoConferenceLink string                 `json:"video_conference_link,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// RemindersSent returns the dedup markers recorded on the event, oldest first.
// Values decoded from JSON arrive as []interface{} and are normalized here.
func (e *CalendarEvent) RemindersSent() []string {
	if e.Metadata == nil {
		return nil
	}
	switch v := e.Metadata[MetadataKeyRemindersSent].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// TimeWindow is a closed interval of instants.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package models

import (
	"time"
)

// DigestFrequency controls how often digest summaries are assembled.
type DigestFrequency string

const (
	DigestNone   DigestFrequency = "none"
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
)

// MetadataKeyTimezone is the preference metadata key holding the IANA
// timezone used to interpret quiet hours.
const MetadataKeyTimezone = "timezone"

// NotificationPreference is the stored per-user preference record.
// Channel toggles are pointers so that "never set" is distinguishable from
// an explicit false; defaults are applied by notification.ResolvePreference.
type NotificationPreference struct {
	UserID          string                 `json:"user_id"`
	EmailEnabled    *bool                  `json:"email_enabled,omitempty"`
	PushEnabled     *bool                  `json:"push_enabled,omitempty"`
	InAppEnabled    *bool                  `json:"in_app_enabled,omitempty"`
	SMSEnabled      *bool                  `json:"sms_enabled,omitempty"`
	DigestFrequency DigestFrequency        `json:"digest_frequency,omitempty"`
	QuietHoursStart string                 `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string                 `json:"quiet_hours_end,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Timezone returns the configured IANA timezone or "" when unset.
func (p *NotificationPreference) Timezone() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	tz, _ := p.Metadata[MetadataKeyTimezone].(string)
	return tz
}

// PreferencePatch is a partial preference update. Nil fields are left as
// stored. Empty quiet-hours strings clear the bound.
type PreferencePatch struct {
	EmailEnabled    *bool            `json:"email_enabled,omitempty"`
	PushEnabled     *bool            `json:"push_enabled,omitempty"`
	InAppEnabled    *bool            `json:"in_app_enabled,omitempty"`
	SMSEnabled      *bool            `json:"sms_enabled,omitempty"`
	DigestFrequency *DigestFrequency `json:"digest_frequency,omitempty" validate:"omitempty,oneof=none daily weekly"`
	QuietHoursStart *string          `json:"quiet_hours_start,omitempty" validate:"omitempty,clock"`
	QuietHoursEnd   *string          `json:"quiet_hours_end,omitempty" validate:"omitempty,clock"`
	Timezone        *string          `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Apply merges the patch into p and returns p.
func (patch *PreferencePatch) Apply(p *NotificationPreference) *NotificationPreference {
	if patch.EmailEnabled != nil {
		p.EmailEnabled = patch.EmailEnabled
	}
	if patch.PushEnabled != nil {
		p.PushEnabled = patch.PushEnabled
	}
	if patch.InAppEnabled != nil {
		p.InAppEnabled = patch.InAppEnabled
	}
	if patch.SMSEnabled != nil {
		p.SMSEnabled = patch.SMSEnabled
	}
	if patch.DigestFrequency != nil {
		p.DigestFrequency = *patch.DigestFrequency
	}
	if patch.QuietHoursStart != nil {
		p.QuietHoursStart = *patch.QuietHoursStart
	}
	if patch.QuietHoursEnd != nil {
		p.QuietHoursEnd = *patch.QuietHoursEnd
	}
	if patch.Timezone != nil {
		if p.Metadata == nil {
			p.Metadata = make(map[string]interface{})
		}
		if *patch.Timezone == "" {
			delete(p.Metadata, MetadataKeyTimezone)
		} else {
			p.Metadata[MetadataKeyTimezone] = *patch.Timezone
		}
	}
	return p
}

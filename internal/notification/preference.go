// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package notification

import (
	"github.com/tomtom215/herald/internal/models"
)

// DefaultTimezone interprets quiet hours when the preference names none.
const DefaultTimezone = "UTC"

// ResolvedPreference is a preference with every default applied.
// It is the only preference shape the dispatch path reads.
type ResolvedPreference struct {
	Email           bool
	Push            bool
	InApp           bool
	SMS             bool
	DigestFrequency models.DigestFrequency
	QuietHoursStart string
	QuietHoursEnd   string
	Timezone        string
}

// DefaultPreference is the policy for users who never stored a preference:
// email, push and in-app on, SMS off, no quiet hours, UTC.
func DefaultPreference() ResolvedPreference {
	return ResolvedPreference{
		Email:           true,
		Push:            true,
		InApp:           true,
		SMS:             false,
		DigestFrequency: models.DigestNone,
		Timezone:        DefaultTimezone,
	}
}

// ResolvePreference merges a stored preference over defaults. A nil stored
// preference yields defaults unchanged. The function is pure.
func ResolvePreference(stored *models.NotificationPreference, defaults ResolvedPreference) ResolvedPreference {
	resolved := defaults
	if stored == nil {
		return resolved
	}

	resolved.Email = boolOr(stored.EmailEnabled, defaults.Email)
	resolved.Push = boolOr(stored.PushEnabled, defaults.Push)
	resolved.InApp = boolOr(stored.InAppEnabled, defaults.InApp)
	resolved.SMS = boolOr(stored.SMSEnabled, defaults.SMS)

	if stored.DigestFrequency != "" {
		resolved.DigestFrequency = stored.DigestFrequency
	}
	if stored.QuietHoursStart != "" {
		resolved.QuietHoursStart = stored.QuietHoursStart
	}
	if stored.QuietHoursEnd != "" {
		resolved.QuietHoursEnd = stored.QuietHoursEnd
	}
	if tz := stored.Timezone(); tz != "" {
		resolved.Timezone = tz
	}

	return resolved
}

// Channels returns the enabled-channel snapshot recorded on notifications.
func (p ResolvedPreference) Channels() models.DeliveryChannels {
	return models.DeliveryChannels{
		Email: p.Email,
		Push:  p.Push,
		SMS:   p.SMS,
		InApp: p.InApp,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

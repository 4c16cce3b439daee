// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package notification

import (
	"strconv"
	"strings"
	"time"
)

// IsQuietHours reports whether now falls inside the preference's quiet
// window, evaluated in the preference's timezone.
//
// The window includes its start minute and excludes its end minute. A start
// at or after the end spans midnight. Missing or malformed bounds report
// false so that bad configuration never suppresses delivery. An unknown
// timezone falls back to UTC.
func IsQuietHours(pref ResolvedPreference, now time.Time) bool {
	if pref.QuietHoursStart == "" || pref.QuietHoursEnd == "" {
		return false
	}

	start, ok := parseClockMinutes(pref.QuietHoursStart)
	if !ok {
		return false
	}
	end, ok := parseClockMinutes(pref.QuietHoursEnd)
	if !ok {
		return false
	}

	local := now.In(loadLocation(pref.Timezone))
	current := local.Hour()*60 + local.Minute()

	if start < end {
		return current >= start && current < end
	}
	return current >= start || current < end
}

// parseClockMinutes converts "HH:MM" to minutes since midnight.
func parseClockMinutes(s string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
)

// PreferenceResponse is the caller's effective preference with defaults
// applied. Stored reports whether a record exists.
type PreferenceResponse struct {
	UserID          string                 `json:"user_id"`
	EmailEnabled    bool                   `json:"email_enabled"`
	PushEnabled     bool                   `json:"push_enabled"`
	InAppEnabled    bool                   `json:"in_app_enabled"`
	SMSEnabled      bool                   `json:"sms_enabled"`
	DigestFrequency models.DigestFrequency `json:"digest_frequency"`
	QuietHoursStart string                 `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string                 `json:"quiet_hours_end,omitempty"`
	Timezone        string                 `json:"timezone"`
	Stored          bool                   `json:"stored"`
	UpdatedAt       *time.Time             `json:"updated_at,omitempty"`
}

func (h *Handler) preferenceResponse(userID string, stored *models.NotificationPreference) PreferenceResponse {
	resolved := notification.ResolvePreference(stored, h.defaults)
	resp := PreferenceResponse{
		UserID:          userID,
		EmailEnabled:    resolved.Email,
		PushEnabled:     resolved.Push,
		InAppEnabled:    resolved.InApp,
		SMSEnabled:      resolved.SMS,
		DigestFrequency: resolved.DigestFrequency,
		QuietHoursStart: resolved.QuietHoursStart,
		QuietHoursEnd:   resolved.QuietHoursEnd,
		Timezone:        resolved.Timezone,
		Stored:          stored != nil,
	}
	if stored != nil {
		updatedAt := stored.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// GetPreferences returns the caller's effective preference.
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if h.deps.Preferences == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Preference store unavailable")
		return
	}

	stored, err := h.deps.Preferences.GetPreference(r.Context(), userID)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).Success(h.preferenceResponse(userID, stored))
}

// UpdatePreferences applies a partial update to the caller's preference,
// creating it when absent.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if h.deps.Preferences == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Preference store unavailable")
		return
	}

	var patch models.PreferencePatch
	if !decodeBody(w, r, &patch, false) {
		return
	}
	if !validateRequest(w, r, &patch) {
		return
	}

	stored, err := h.deps.Preferences.UpsertPreference(r.Context(), userID, &patch)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", userID).Msg("Notification preference updated")
	NewResponseWriter(w, r).Success(h.preferenceResponse(userID, stored))
}

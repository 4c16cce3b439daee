// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/herald/internal/models"
)

// CalendarEventRequest is the body of PUT /api/v1/calendar/events/{id}.
type CalendarEventRequest struct {
	UserID              string                 `json:"user_id" validate:"required,max=128"`
	Title               string                 `json:"title" validate:"required,max=500"`
	StartsAt            time.Time              `json:"starts_at" validate:"required"`
	EndsAt              *time.Time             `json:"ends_at,omitempty"`
	ReminderMinutes     *int                   `json:"reminder_minutes,omitempty" validate:"omitempty,gte=0,lte=40320"`
	Location            string                 `json:"location,omitempty" validate:"max=500"`
	VideoConferenceLink string                 `json:"video_conference_link,omitempty" validate:"omitempty,url,max=2048"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// UpsertCalendarEvent stores an event pushed by the calendar service so
// the reminder scanner can see it. Omitting metadata keeps the reminder
// markers already recorded for the event.
func (h *Handler) UpsertCalendarEvent(w http.ResponseWriter, r *http.Request) {
	if h.deps.Calendar == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Calendar store unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > 128 {
		NewResponseWriter(w, r).BadRequest("Invalid event id")
		return
	}

	var req CalendarEventRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		NewResponseWriter(w, r).BadRequest("ends_at must not be before starts_at")
		return
	}

	event := &models.CalendarEvent{
		ID:                  id,
		UserID:              req.UserID,
		Title:               req.Title,
		StartsAt:            req.StartsAt.UTC(),
		EndsAt:              req.EndsAt,
		ReminderMinutes:     req.ReminderMinutes,
		Location:            req.Location,
		VideoConferenceLink: req.VideoConferenceLink,
		Metadata:            req.Metadata,
	}
	if err := h.deps.Calendar.UpsertCalendarEvent(r.Context(), event); err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	NewResponseWriter(w, r).Success(event)
}

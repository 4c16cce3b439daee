// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/notification"
)

// DispatchRequest is the body of POST /api/v1/notifications.
type DispatchRequest struct {
	notification.Event
	BypassQuietHours bool `json:"bypassQuietHours"`
}

// CreateNotification dispatches one notification on behalf of a producer.
// The recipient is named in the body, not by the caller header.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	if h.deps.Notifications == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Dispatcher unavailable")
		return
	}

	var req DispatchRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	n, err := h.deps.Notifications.Dispatch(r.Context(), req.Event, notification.DispatchOptions{
		BypassQuietHours: req.BypassQuietHours,
	})
	if err != nil {
		writeNotificationError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(n)
}

// ListNotifications returns a page of the caller's notifications.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if h.deps.Notifications == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Dispatcher unavailable")
		return
	}

	filter, err := parseListFilter(r)
	if err != nil {
		NewResponseWriter(w, r).BadRequest(err.Error())
		return
	}

	list, err := h.deps.Notifications.List(r.Context(), userID, filter)
	if err != nil {
		writeNotificationError(w, r, err)
		return
	}

	NewResponseWriter(w, r).SuccessWithPagination(list.Notifications, &PaginationMeta{
		Total:   list.TotalCount,
		Count:   len(list.Notifications),
		Offset:  list.Offset,
		Limit:   list.Limit,
		HasMore: list.Offset+len(list.Notifications) < list.TotalCount,
	})
}

// MarkNotificationRead moves a notification to read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "read")
}

// DismissNotification moves a notification to dismissed.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "dismiss")
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action string) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if h.deps.Notifications == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Dispatcher unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		NewResponseWriter(w, r).BadRequest("Notification id is required")
		return
	}

	apply := h.deps.Notifications.MarkRead
	if action == "dismiss" {
		apply = h.deps.Notifications.Dismiss
	}

	n, err := apply(r.Context(), userID, id)
	if err != nil {
		writeNotificationError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(n)
}

// writeNotificationError maps dispatcher errors to HTTP responses.
func writeNotificationError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *notification.ValidationError
	switch {
	case errors.As(err, &verr):
		if verr.Details == nil {
			rw.ValidationError(notification.ErrValidation.Error(), nil)
			return
		}
		apiErr := verr.Details.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
	case errors.Is(err, notification.ErrNotFound):
		rw.NotFound("Notification not found")
	case errors.Is(err, notification.ErrInvalidTransition):
		rw.Conflict(err.Error())
	case errors.Is(err, notification.ErrConflict):
		rw.Conflict(err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Notification operation failed")
		rw.InternalError("Notification operation failed")
	}
}

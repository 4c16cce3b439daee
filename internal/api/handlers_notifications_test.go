// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
	"github.com/tomtom215/herald/internal/validation"
)

func TestCreateNotification(t *testing.T) {
	ts := newTestServer(t)

	body := `{"user_id":"alice","category":"workspace","type":"workspace.invite","title":"You were invited","bypassQuietHours":true}`
	rec := ts.do(t, http.MethodPost, "/api/v1/notifications", "", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var n models.Notification
	resp := decodeEnvelope(t, rec, &n)
	if !resp.Success || n.ID != "n-1" || n.UserID != "alice" {
		t.Errorf("response = %+v, notification %+v", resp, n)
	}

	if len(ts.notifications.dispatched) != 1 {
		t.Fatalf("dispatch calls = %d", len(ts.notifications.dispatched))
	}
	ev := ts.notifications.dispatched[0]
	if ev.Category != models.CategoryWorkspace || ev.Type != "workspace.invite" {
		t.Errorf("event = %+v", ev)
	}
	if !ts.notifications.dispatchOpt[0].BypassQuietHours {
		t.Error("bypassQuietHours not forwarded")
	}
}

func TestCreateNotification_Errors(t *testing.T) {
	verr := validation.ValidateStruct(&notification.Event{})

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"empty body", "", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"malformed json", "{", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"validation", `{"title":"x"}`, &notification.ValidationError{Details: verr}, http.StatusBadRequest, ErrCodeValidationFailed},
		{"store failure", `{"user_id":"a"}`, errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.notifications.dispatchErr = tt.err

			rec := ts.do(t, http.MethodPost, "/api/v1/notifications", "", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec, nil)
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantErr)
			}
		})
	}
}

func TestListNotifications(t *testing.T) {
	ts := newTestServer(t)
	ts.notifications.list = &models.NotificationList{
		Notifications: []models.Notification{{ID: "a"}, {ID: "b"}},
		TotalCount:    5,
		Limit:         2,
		Offset:        0,
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications?status=delivered&limit=2&offset=0", "alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var items []models.Notification
	resp := decodeEnvelope(t, rec, &items)
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	p := resp.Meta.Pagination
	if p == nil || p.Total != 5 || p.Count != 2 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}

	if ts.notifications.listUser != "alice" {
		t.Errorf("listed for %q, want alice", ts.notifications.listUser)
	}
	if f := ts.notifications.listFilter; f.Status != models.StatusDelivered || f.Limit != 2 {
		t.Errorf("filter = %+v", f)
	}
}

func TestListNotifications_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.do(t, http.MethodGet, "/api/v1/notifications", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing user: status = %d, want 401", rec.Code)
	}
	if rec := ts.do(t, http.MethodGet, "/api/v1/notifications?limit=ten", "alice", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d, want 400", rec.Code)
	}
}

func TestNotificationTransitions(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		err        error
		wantStatus int
	}{
		{"read", "read", nil, http.StatusOK},
		{"dismiss", "dismiss", nil, http.StatusOK},
		{"not found", "read", notification.ErrNotFound, http.StatusNotFound},
		{"invalid transition", "read", fmt.Errorf("%w: dismissed -> read", notification.ErrInvalidTransition), http.StatusConflict},
		{"concurrent change", "dismiss", notification.ErrConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.notifications.transErr = tt.err

			rec := ts.do(t, http.MethodPost, "/api/v1/notifications/n-42/"+tt.action, "alice", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if len(ts.notifications.transitions) != 1 {
				t.Fatalf("transitions = %v", ts.notifications.transitions)
			}
			want := "alice:n-42:read"
			if tt.action == "dismiss" {
				want = "alice:n-42:dismissed"
			}
			if ts.notifications.transitions[0] != want {
				t.Errorf("transition = %q, want %q", ts.notifications.transitions[0], want)
			}
		})
	}
}

func TestNotificationTransitions_RequireUser(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/api/v1/notifications/n-1/read", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(ts.notifications.transitions) != 0 {
		t.Error("service must not be called without a user")
	}
}

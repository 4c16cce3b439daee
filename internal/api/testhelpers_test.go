// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/alerting"
	"github.com/tomtom215/herald/internal/models"
	"github.com/tomtom215/herald/internal/notification"
	"github.com/tomtom215/herald/internal/reminder"
)

// mockNotifications is a scripted NotificationService.
type mockNotifications struct {
	mu sync.Mutex

	dispatched  []notification.Event
	dispatchOpt []notification.DispatchOptions
	dispatchErr error

	listFilter notification.ListFilter
	listUser   string
	list       *models.NotificationList
	listErr    error

	transitions []string
	transErr    error
}

func (m *mockNotifications) Dispatch(ctx context.Context, ev notification.Event, opts notification.DispatchOptions) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, ev)
	m.dispatchOpt = append(m.dispatchOpt, opts)
	if m.dispatchErr != nil {
		return nil, m.dispatchErr
	}
	return &models.Notification{
		ID:       "n-1",
		UserID:   ev.UserID,
		Category: ev.Category,
		Type:     ev.Type,
		Title:    ev.Title,
		Status:   models.StatusDelivered,
	}, nil
}

func (m *mockNotifications) MarkRead(ctx context.Context, userID, id string) (*models.Notification, error) {
	return m.transition(userID, id, models.StatusRead)
}

func (m *mockNotifications) Dismiss(ctx context.Context, userID, id string) (*models.Notification, error) {
	return m.transition(userID, id, models.StatusDismissed)
}

func (m *mockNotifications) transition(userID, id string, to models.NotificationStatus) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, userID+":"+id+":"+string(to))
	if m.transErr != nil {
		return nil, m.transErr
	}
	return &models.Notification{ID: id, UserID: userID, Status: to}, nil
}

func (m *mockNotifications) List(ctx context.Context, userID string, filter notification.ListFilter) (*models.NotificationList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listUser = userID
	m.listFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	if m.list != nil {
		return m.list, nil
	}
	return &models.NotificationList{Notifications: []models.Notification{}, Limit: 50}, nil
}

// mockPreferences stores preferences in a map.
type mockPreferences struct {
	mu    sync.Mutex
	prefs map[string]*models.NotificationPreference
	err   error
}

func newMockPreferences() *mockPreferences {
	return &mockPreferences{prefs: make(map[string]*models.NotificationPreference)}
}

func (m *mockPreferences) GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.prefs[userID], nil
}

func (m *mockPreferences) UpsertPreference(ctx context.Context, userID string, patch *models.PreferencePatch) (*models.NotificationPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.prefs[userID]
	if !ok {
		p = &models.NotificationPreference{UserID: userID, DigestFrequency: models.DigestNone, CreatedAt: time.Now()}
		m.prefs[userID] = p
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now()
	return p, nil
}

// mockCalendar records upserts.
type mockCalendar struct {
	mu     sync.Mutex
	events []*models.CalendarEvent
	err    error
}

func (m *mockCalendar) UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

// mockScanner records scan options.
type mockScanner struct {
	mu   sync.Mutex
	opts []reminder.ScanOptions
	err  error
}

func (m *mockScanner) Run(ctx context.Context, opts reminder.ScanOptions) (*reminder.ScanResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &reminder.ScanResult{Dispatched: 2, Events: []reminder.ReminderDescriptor{}}, nil
}

// mockEvaluator records snapshots.
type mockEvaluator struct {
	mu    sync.Mutex
	snaps []alerting.MetricsSnapshot
}

func (m *mockEvaluator) Evaluate(ctx context.Context, snap alerting.MetricsSnapshot, opts alerting.EvaluateOptions) *alerting.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return &alerting.Report{EvaluatedAt: opts.Now, Active: []alerting.Alert{}, Dispatched: []string{}}
}

// mockPinger reports a fixed health result.
type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// testServer bundles the mocks behind a full router.
type testServer struct {
	handler       http.Handler
	notifications *mockNotifications
	preferences   *mockPreferences
	calendar      *mockCalendar
	scanner       *mockScanner
	evaluator     *mockEvaluator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		notifications: &mockNotifications{},
		preferences:   newMockPreferences(),
		calendar:      &mockCalendar{},
		scanner:       &mockScanner{},
		evaluator:     &mockEvaluator{},
	}
	h := NewHandler(Dependencies{
		Notifications: ts.notifications,
		Preferences:   ts.preferences,
		Calendar:      ts.calendar,
		Reminders:     ts.scanner,
		Alerts:        ts.evaluator,
		Database:      mockPinger{},
		Version:       "test",
	})
	logger := zerolog.Nop()
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	ts.handler = NewRouter(h, cfg, &logger).SetupChi()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope decodes the response and, when data is non-nil, its
// data field into data.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
		Meta    *APIMeta        `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return APIResponse{Success: raw.Success, Error: raw.Error, Meta: raw.Meta}
}

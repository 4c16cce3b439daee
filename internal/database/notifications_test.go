// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/herald/internal/models"
)

func newTestNotification(userID string, status models.NotificationStatus, createdAt time.Time) *models.Notification {
	n := &models.Notification{
		ID:       uuid.New().String(),
		UserID:   userID,
		Category: models.CategorySystem,
		Priority: models.PriorityNormal,
		Type:     "test.event",
		Title:    "Test",
		Payload: map[string]interface{}{
			models.PayloadKeyChannels:         map[string]interface{}{"email": true, "push": true, "sms": false, "inApp": true},
			models.PayloadKeyBypassQuietHours: false,
		},
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if status == models.StatusDelivered {
		d := createdAt
		n.DeliveredAt = &d
	}
	return n
}

func TestCreateAndGetNotification(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)
	n := newTestNotification("user-1", models.StatusDelivered, now)
	n.Body = "Body text"
	n.ExpiresAt = &expires

	if err := db.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	got, err := db.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected notification")
	}
	if got.Status != models.StatusDelivered {
		t.Errorf("Status = %q, want delivered", got.Status)
	}
	if got.DeliveredAt == nil || !got.DeliveredAt.Equal(now) {
		t.Errorf("DeliveredAt = %v, want %v", got.DeliveredAt, now)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, expires)
	}
	if got.ReadAt != nil {
		t.Errorf("ReadAt = %v, want nil", got.ReadAt)
	}
	if got.Body != "Body text" {
		t.Errorf("Body = %q", got.Body)
	}
	if bypass, ok := got.Payload[models.PayloadKeyBypassQuietHours].(bool); !ok || bypass {
		t.Errorf("payload bypassQuietHours = %v, want false", got.Payload[models.PayloadKeyBypassQuietHours])
	}
	if _, ok := got.Payload[models.PayloadKeyChannels].(map[string]interface{}); !ok {
		t.Errorf("payload channels missing: %v", got.Payload)
	}
}

func TestGetNotification_Missing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetNotification(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("GetNotification failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}

func TestUpdateNotificationStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := newTestNotification("user-1", models.StatusPending, now)
	if err := db.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	readAt := now.Add(time.Minute)
	updated, err := db.UpdateNotificationStatus(ctx, n.ID, models.StatusPending, models.StatusRead, &readAt, readAt)
	if err != nil {
		t.Fatalf("UpdateNotificationStatus failed: %v", err)
	}
	if !updated {
		t.Fatal("Expected row to be updated")
	}

	// The prior status no longer matches.
	updated, err = db.UpdateNotificationStatus(ctx, n.ID, models.StatusPending, models.StatusDismissed, nil, readAt)
	if err != nil {
		t.Fatalf("UpdateNotificationStatus failed: %v", err)
	}
	if updated {
		t.Error("Expected stale update to be rejected")
	}

	got, err := db.GetNotification(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNotification failed: %v", err)
	}
	if got.Status != models.StatusRead {
		t.Errorf("Status = %q, want read", got.Status)
	}
	if got.ReadAt == nil || !got.ReadAt.Equal(readAt) {
		t.Errorf("ReadAt = %v, want %v", got.ReadAt, readAt)
	}
}

func TestListNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		status := models.StatusDelivered
		if i%2 == 0 {
			status = models.StatusPending
		}
		n := newTestNotification("user-1", status, base.Add(time.Duration(i)*time.Minute))
		n.Title = fmt.Sprintf("n%d", i)
		if err := db.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification failed: %v", err)
		}
	}
	if err := db.CreateNotification(ctx, newTestNotification("user-2", models.StatusDelivered, base)); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	tests := []struct {
		name       string
		filter     models.NotificationFilter
		wantTotal  int
		wantTitles []string
	}{
		{
			name:       "first page newest first",
			filter:     models.NotificationFilter{UserID: "user-1", Limit: 2},
			wantTotal:  5,
			wantTitles: []string{"n4", "n3"},
		},
		{
			name:       "offset",
			filter:     models.NotificationFilter{UserID: "user-1", Limit: 2, Offset: 4},
			wantTotal:  5,
			wantTitles: []string{"n0"},
		},
		{
			name:       "status filter",
			filter:     models.NotificationFilter{UserID: "user-1", Status: models.StatusDelivered, Limit: 10},
			wantTotal:  2,
			wantTitles: []string{"n3", "n1"},
		},
		{
			name:       "unknown user",
			filter:     models.NotificationFilter{UserID: "user-3", Limit: 10},
			wantTotal:  0,
			wantTitles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := db.ListNotifications(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListNotifications failed: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(items) != len(tt.wantTitles) {
				t.Fatalf("got %d items, want %d", len(items), len(tt.wantTitles))
			}
			for i, want := range tt.wantTitles {
				if items[i].Title != want {
					t.Errorf("items[%d].Title = %q, want %q", i, items[i].Title, want)
				}
			}
		})
	}
}

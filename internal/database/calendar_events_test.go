// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/herald/internal/models"
)

func intPtr(i int) *int { return &i }

func TestUpsertAndGetCalendarEvent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	starts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ends := starts.Add(30 * time.Minute)
	e := &models.CalendarEvent{
		ID:                  "evt-1",
		UserID:              "user-1",
		Title:               "Standup",
		StartsAt:            starts,
		EndsAt:              &ends,
		ReminderMinutes:     intPtr(15),
		Location:            "Room 4",
		VideoConferenceLink: "https://meet.example.com/abc",
	}
	if err := db.UpsertCalendarEvent(ctx, e); err != nil {
		t.Fatalf("UpsertCalendarEvent failed: %v", err)
	}

	got, err := db.GetCalendarEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetCalendarEvent failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected event")
	}
	if !got.StartsAt.Equal(starts) {
		t.Errorf("StartsAt = %v, want %v", got.StartsAt, starts)
	}
	if got.EndsAt == nil || !got.EndsAt.Equal(ends) {
		t.Errorf("EndsAt = %v, want %v", got.EndsAt, ends)
	}
	if got.ReminderMinutes == nil || *got.ReminderMinutes != 15 {
		t.Errorf("ReminderMinutes = %v, want 15", got.ReminderMinutes)
	}
	if got.Location != "Room 4" || got.VideoConferenceLink != "https://meet.example.com/abc" {
		t.Errorf("Location/link = %q/%q", got.Location, got.VideoConferenceLink)
	}

	missing, err := db.GetCalendarEvent(ctx, "evt-404")
	if err != nil {
		t.Fatalf("GetCalendarEvent failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing event")
	}
}

func TestUpsertCalendarEvent_KeepsMetadataWhenOmitted(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	starts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &models.CalendarEvent{ID: "evt-1", UserID: "user-1", Title: "Standup", StartsAt: starts, ReminderMinutes: intPtr(10)}
	if err := db.UpsertCalendarEvent(ctx, e); err != nil {
		t.Fatalf("UpsertCalendarEvent failed: %v", err)
	}
	if err := db.UpdateCalendarEventMetadata(ctx, "evt-1", map[string]interface{}{
		models.MetadataKeyRemindersSent: []string{"2026-03-01T12:00:00.000Z:10"},
	}); err != nil {
		t.Fatalf("UpdateCalendarEventMetadata failed: %v", err)
	}

	e.Title = "Renamed"
	e.Metadata = nil
	if err := db.UpsertCalendarEvent(ctx, e); err != nil {
		t.Fatalf("second UpsertCalendarEvent failed: %v", err)
	}

	got, err := db.GetCalendarEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetCalendarEvent failed: %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", got.Title)
	}
	sent := got.RemindersSent()
	if len(sent) != 1 || sent[0] != "2026-03-01T12:00:00.000Z:10" {
		t.Errorf("RemindersSent = %v", sent)
	}
}

func TestFindDueCalendarEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*models.CalendarEvent{
		{ID: "late", UserID: "u", Title: "late", StartsAt: now.Add(90 * time.Minute), ReminderMinutes: intPtr(10)},
		{ID: "soon", UserID: "u", Title: "soon", StartsAt: now.Add(10 * time.Minute), ReminderMinutes: intPtr(15)},
		{ID: "no-reminder", UserID: "u", Title: "none", StartsAt: now.Add(20 * time.Minute)},
		{ID: "outside", UserID: "u", Title: "outside", StartsAt: now.Add(5 * time.Hour), ReminderMinutes: intPtr(10)},
		{ID: "past", UserID: "u", Title: "past", StartsAt: now.Add(-30 * time.Minute), ReminderMinutes: intPtr(10)},
		{ID: "middle", UserID: "u", Title: "middle", StartsAt: now.Add(45 * time.Minute), ReminderMinutes: intPtr(60)},
	}
	for _, e := range events {
		if err := db.UpsertCalendarEvent(ctx, e); err != nil {
			t.Fatalf("UpsertCalendarEvent(%s) failed: %v", e.ID, err)
		}
	}

	window := models.TimeWindow{Start: now.Add(-10 * time.Minute), End: now.Add(130 * time.Minute)}

	got, err := db.FindDueCalendarEvents(ctx, window, 50)
	if err != nil {
		t.Fatalf("FindDueCalendarEvents failed: %v", err)
	}
	want := []string{"soon", "middle", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	limited, err := db.FindDueCalendarEvents(ctx, window, 1)
	if err != nil {
		t.Fatalf("FindDueCalendarEvents failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "soon" {
		t.Errorf("limit 1 = %v, want [soon]", limited)
	}
}

func TestUpdateCalendarEventMetadata_Missing(t *testing.T) {
	db := setupTestDB(t)

	err := db.UpdateCalendarEventMetadata(context.Background(), "evt-404", map[string]interface{}{"k": "v"})
	if err == nil {
		t.Error("Expected error for missing event")
	}
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
)

const calendarEventColumns = `id, user_id, title, starts_at, ends_at, reminder_minutes, location,
	video_conference_link, metadata, created_at, updated_at`

// UpsertCalendarEvent inserts or replaces a calendar event. A nil Metadata
// keeps whatever reminder markers are already stored for the event.
func (db *DB) UpsertCalendarEvent(ctx context.Context, e *models.CalendarEvent) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	metadataJSON, err := marshalJSONField(e.Metadata, "metadata")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	var reminderMinutes interface{}
	if e.ReminderMinutes != nil {
		reminderMinutes = *e.ReminderMinutes
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO calendar_events (`+calendarEventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			title = EXCLUDED.title,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			reminder_minutes = EXCLUDED.reminder_minutes,
			location = EXCLUDED.location,
			video_conference_link = EXCLUDED.video_conference_link,
			metadata = COALESCE(EXCLUDED.metadata, calendar_events.metadata),
			updated_at = EXCLUDED.updated_at`,
		e.ID,
		nullableString(e.UserID),
		e.Title,
		e.StartsAt.UTC(),
		nullableTime(e.EndsAt),
		reminderMinutes,
		nullableString(e.Location),
		nullableString(e.VideoConferenceLink),
		nullableJSON(metadataJSON),
		e.CreatedAt.UTC(),
		e.UpdatedAt,
	)
	metrics.RecordDBQuery("upsert", "calendar_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert calendar event: %w", err)
	}
	return nil
}

// GetCalendarEvent returns an event by ID, or nil if it does not exist.
func (db *DB) GetCalendarEvent(ctx context.Context, id string) (*models.CalendarEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	e, err := scanCalendarEvent(db.conn.QueryRowContext(ctx,
		`SELECT `+calendarEventColumns+` FROM calendar_events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "calendar_events", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("select", "calendar_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar event: %w", err)
	}
	return e, nil
}

// FindDueCalendarEvents returns events with a reminder configured whose start
// falls inside window, soonest first, at most limit rows.
func (db *DB) FindDueCalendarEvents(ctx context.Context, window models.TimeWindow, limit int) ([]models.CalendarEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+calendarEventColumns+`
		FROM calendar_events
		WHERE reminder_minutes IS NOT NULL
			AND starts_at >= ?
			AND starts_at <= ?
		ORDER BY starts_at ASC, id ASC
		LIMIT ?`,
		window.Start.UTC(), window.End.UTC(), limit)
	if err != nil {
		metrics.RecordDBQuery("select", "calendar_events", time.Since(start), err)
		return nil, fmt.Errorf("failed to query due calendar events: %w", err)
	}
	defer closeWithLog(rows, "calendar event rows")

	var events []models.CalendarEvent
	for rows.Next() {
		e, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	err = rows.Err()
	metrics.RecordDBQuery("select", "calendar_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate calendar events: %w", err)
	}
	return events, nil
}

// UpdateCalendarEventMetadata replaces the metadata of an event.
func (db *DB) UpdateCalendarEventMetadata(ctx context.Context, id string, metadata map[string]interface{}) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	metadataJSON, err := marshalJSONField(metadata, "metadata")
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE calendar_events SET metadata = ?, updated_at = ? WHERE id = ?`,
		nullableJSON(metadataJSON), time.Now().UTC(), id)
	metrics.RecordDBQuery("update", "calendar_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update calendar event metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("calendar event %s not found", id)
	}
	return nil
}

func scanCalendarEvent(row rowScanner) (*models.CalendarEvent, error) {
	var e models.CalendarEvent
	var userID, location, link, metadata sql.NullString
	var endsAt sql.NullTime
	var reminderMinutes sql.NullInt64

	if err := row.Scan(&e.ID, &userID, &e.Title, &e.StartsAt, &endsAt, &reminderMinutes,
		&location, &link, &metadata, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	e.UserID = userID.String
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = timeFromNull(endsAt)
	if reminderMinutes.Valid {
		m := int(reminderMinutes.Int64)
		e.ReminderMinutes = &m
	}
	e.Location = location.String
	e.VideoConferenceLink = link.String
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if err := parseJSONFieldInto(metadata, &e.Metadata, "metadata"); err != nil {
		return nil, err
	}
	return &e, nil
}

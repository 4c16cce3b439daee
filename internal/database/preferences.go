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

const preferenceColumns = `user_id, email_enabled, push_enabled, in_app_enabled, sms_enabled,
	digest_frequency, quiet_hours_start, quiet_hours_end, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// GetPreference returns the stored preference for userID, or nil if the
// user has never saved one.
func (db *DB) GetPreference(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ?`, userID)
	pref, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "notification_preferences", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("select", "notification_preferences", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return pref, nil
}

// UpsertPreference applies patch to the user's preference, creating the row
// on first write. The read and write run in one transaction.
func (db *DB) UpsertPreference(ctx context.Context, userID string, patch *models.PreferencePatch) (*models.NotificationPreference, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	pref, err := db.upsertPreference(ctx, userID, patch)
	metrics.RecordDBQuery("upsert", "notification_preferences", time.Since(start), err)
	return pref, err
}

func (db *DB) upsertPreference(ctx context.Context, userID string, patch *models.PreferencePatch) (*models.NotificationPreference, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	pref, err := scanPreference(tx.QueryRowContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ?`, userID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		pref = &models.NotificationPreference{
			UserID:          userID,
			DigestFrequency: models.DigestNone,
			CreatedAt:       now,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load preference: %w", err)
	}

	if patch != nil {
		patch.Apply(pref)
	}
	pref.UpdatedAt = now

	metadataJSON, err := marshalJSONField(pref.Metadata, "metadata")
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notification_preferences (`+preferenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			in_app_enabled = EXCLUDED.in_app_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			digest_frequency = EXCLUDED.digest_frequency,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		pref.UserID,
		nullableBool(pref.EmailEnabled),
		nullableBool(pref.PushEnabled),
		nullableBool(pref.InAppEnabled),
		nullableBool(pref.SMSEnabled),
		nullableString(string(pref.DigestFrequency)),
		nullableString(pref.QuietHoursStart),
		nullableString(pref.QuietHoursEnd),
		nullableJSON(metadataJSON),
		pref.CreatedAt,
		pref.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit preference: %w", err)
	}
	return pref, nil
}

func scanPreference(row rowScanner) (*models.NotificationPreference, error) {
	var p models.NotificationPreference
	var email, push, inApp, sms sql.NullBool
	var digest, quietStart, quietEnd, metadata sql.NullString

	if err := row.Scan(&p.UserID, &email, &push, &inApp, &sms,
		&digest, &quietStart, &quietEnd, &metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.EmailEnabled = boolFromNull(email)
	p.PushEnabled = boolFromNull(push)
	p.InAppEnabled = boolFromNull(inApp)
	p.SMSEnabled = boolFromNull(sms)
	p.DigestFrequency = models.DigestFrequency(digest.String)
	p.QuietHoursStart = quietStart.String
	p.QuietHoursEnd = quietEnd.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if err := parseJSONFieldInto(metadata, &p.Metadata, "metadata"); err != nil {
		return nil, err
	}
	return &p, nil
}

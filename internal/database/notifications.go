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

const notificationColumns = `id, user_id, category, priority, type, title, body, payload, status,
	delivered_at, read_at, expires_at, created_at, updated_at`

// CreateNotification inserts a new notification record.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	payloadJSON, err := marshalJSONField(n.Payload, "payload")
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		string(n.Category),
		string(n.Priority),
		n.Type,
		n.Title,
		nullableString(n.Body),
		nullableJSON(payloadJSON),
		string(n.Status),
		nullableTime(n.DeliveredAt),
		nullableTime(n.ReadAt),
		nullableTime(n.ExpiresAt),
		n.CreatedAt.UTC(),
		n.UpdatedAt.UTC(),
	)
	metrics.RecordDBQuery("insert", "notifications", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// GetNotification returns a notification by ID, or nil if it does not exist.
func (db *DB) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	n, err := scanNotification(db.conn.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("select", "notifications", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery("select", "notifications", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// UpdateNotificationStatus moves a notification from one status to another
// only if it still holds the expected status. It reports whether a row changed.
// A non-nil readAt is stamped alongside the status.
func (db *DB) UpdateNotificationStatus(ctx context.Context, id string, from, to models.NotificationStatus, readAt *time.Time, updatedAt time.Time) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE notifications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	args := []interface{}{string(to), updatedAt.UTC(), id, string(from)}
	if readAt != nil {
		query = `UPDATE notifications SET status = ?, updated_at = ?, read_at = ? WHERE id = ? AND status = ?`
		args = []interface{}{string(to), updatedAt.UTC(), readAt.UTC(), id, string(from)}
	}

	start := time.Now()
	result, err := db.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("update", "notifications", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to update notification status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListNotifications returns a page of a user's notifications, newest first,
// together with the total number matching the filter.
func (db *DB) ListNotifications(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where := `WHERE user_id = ?`
	args := []interface{}{filter.UserID}
	if filter.Status != "" {
		where += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	start := time.Now()
	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications `+where, args...).Scan(&total); err != nil {
		metrics.RecordDBQuery("count", "notifications", time.Since(start), err)
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	pageArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications `+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		metrics.RecordDBQuery("list", "notifications", time.Since(start), err)
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeWithLog(rows, "notification rows")

	items := make([]models.Notification, 0, filter.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, *n)
	}
	err = rows.Err()
	metrics.RecordDBQuery("list", "notifications", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return items, total, nil
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var category, priority, status string
	var body, payload sql.NullString
	var deliveredAt, readAt, expiresAt sql.NullTime

	if err := row.Scan(&n.ID, &n.UserID, &category, &priority, &n.Type, &n.Title, &body, &payload, &status,
		&deliveredAt, &readAt, &expiresAt, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}

	n.Category = models.NotificationCategory(category)
	n.Priority = models.NotificationPriority(priority)
	n.Status = models.NotificationStatus(status)
	n.Body = body.String
	n.DeliveredAt = timeFromNull(deliveredAt)
	n.ReadAt = timeFromNull(readAt)
	n.ExpiresAt = timeFromNull(expiresAt)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	if err := parseJSONFieldInto(payload, &n.Payload, "payload"); err != nil {
		return nil, err
	}
	return &n, nil
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package database provides the DuckDB persistence layer for Herald.
//
// # Overview
//
// The package stores three record types:
//   - notification_preferences: per-user delivery preferences, created on first write
//   - notifications: dispatch decisions and their read/dismiss lifecycle
//   - calendar_events: collaborator events carrying reminder configuration
//
// # Files
//
//   - database.go: connection lifecycle (open, checkpoint, close)
//   - database_connection.go: pool sizing and context defaults
//   - database_schema.go: table and index creation
//   - database_utils.go: NULL and JSON column helpers
//   - preferences.go: GetPreference, UpsertPreference
//   - notifications.go: CreateNotification, GetNotification, UpdateNotificationStatus, ListNotifications
//   - calendar_events.go: UpsertCalendarEvent, FindDueCalendarEvents, UpdateCalendarEventMetadata
//
// # Conventions
//
// Getters return (nil, nil) when the row does not exist. Callers decide
// whether absence is an error.
//
// UpdateNotificationStatus is a conditional update on the prior status and
// reports whether it won; it is the optimistic lock behind read and dismiss.
//
// Every accessor applies a 30 second timeout when the caller's context has
// no deadline, and records duration and errors in the herald_duckdb_* metrics.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	pref, err := db.GetPreference(ctx, userID)
package database

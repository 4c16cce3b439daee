// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package reminder dispatches calendar event reminders.
//
// A Scanner pass looks at events starting within the lookahead window and
// dispatches each due reminder through the notification dispatcher once.
// Each reminder is identified by its key, the event start in UTC ISO-8601
// with milliseconds followed by ":" and the reminder offset in minutes:
//
//	2026-03-01T12:00:00.000Z:15
//
// Dedup state lives on the event (metadata.remindersSent, most recent 10
// keys). An optional KeyStore (memory, BadgerDB or Redis) is claimed before
// dispatch so overlapping scans cannot both send before the marker is
// written. A failed dispatch releases the claim.
//
// The Scheduler runs the scanner on a fixed interval under the supervisor
// tree. Scanner.Run is serialized, so manual triggers and scheduled runs
// never overlap.
package reminder

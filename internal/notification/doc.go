// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package notification implements the dispatch decision for every
// user-facing notification.
//
// All producers (API callers, the calendar reminder scanner, the alert
// evaluator) funnel through Dispatcher.Dispatch, which:
//
//  1. validates the event,
//  2. loads the recipient's stored preference,
//  3. merges it with DefaultPreference into a ResolvedPreference,
//  4. evaluates quiet hours unless bypassed,
//  5. picks the initial status with InitialStatus,
//  6. persists the record with the channel snapshot in its payload,
//  7. drops cached listings for the user and publishes the record.
//
// After creation a notification only moves through MarkRead and Dismiss,
// guarded by Transition and an optimistic conditional update in the store.
package notification

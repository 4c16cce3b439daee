// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package cache provides a thread-safe TTL cache.
//
// The notification service keeps listing pages here, keyed by
// "notifications:<userID>:<hash of filter>". Any write for a user calls
// DeletePrefix("notifications:<userID>:") so that stale pages are never
// served after a dispatch, read or dismiss.
package cache

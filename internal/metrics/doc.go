// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package metrics declares Herald's Prometheus instrumentation.
//
// All collectors are registered on the default registry through promauto
// and exposed by the API router at /metrics. Components either touch the
// exported vectors directly or go through the Record* helpers.
package metrics

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package middleware provides HTTP middleware shared by the Herald API.

Key Components:

  - RequestID: reuses or generates X-Request-ID and stores it in the context
  - RequestLogger: one zerolog line per request, level chosen by status
  - PrometheusMetrics: request count and duration labeled by chi route pattern

Order matters. The router installs them as:

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

Both wrappers use chi's WrapResponseWriter, which keeps http.Hijacker
available so WebSocket upgrades pass through.
*/
package middleware

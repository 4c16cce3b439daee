// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package api exposes Herald over HTTP using the chi router.

Routes:

	GET  /health
	GET  /metrics
	GET  /api/v1/preferences
	PUT  /api/v1/preferences
	POST /api/v1/notifications
	GET  /api/v1/notifications?status=&limit=&offset=
	GET  /api/v1/notifications/stream           (WebSocket)
	POST /api/v1/notifications/{id}/read
	POST /api/v1/notifications/{id}/dismiss
	PUT  /api/v1/calendar/events/{id}
	POST /api/v1/reminders/scan
	POST /api/v1/alerts/evaluate

The calling user is taken from the X-User-ID header; authentication is
performed by the gateway in front of Herald. Producer routes (dispatch,
calendar upsert, reminder scan, alert evaluation) name their subject in
the body instead.

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Error mapping for notification operations:

	validation failure        400 VALIDATION_FAILED
	unknown or foreign id     404 NOT_FOUND
	illegal status change     409 CONFLICT
	concurrent status change  409 CONFLICT
*/
package api

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package main is the entry point for the Herald server.

Herald decides whether and when each notification reaches a user. It honors
per-user channel toggles and quiet hours, sends calendar reminders exactly
once per event and lead time, and turns operational metric snapshots into
throttled alerts for configured recipients.

# Application Architecture

	RootSupervisor ("herald")
	├── DataSupervisor ("data-layer")
	│   ├── Reminder Scheduler (periodic calendar scan)
	│   └── Alert Monitor (snapshot polling, optional)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── Realtime Hub (WebSocket fan-out)
	│   └── Event Bridge (watermill -> hub)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: koanf v2 (defaults, config file, environment)
 2. Logging: zerolog with JSON/console output
 3. Database: DuckDB store for notifications, preferences and calendar events
 4. Listing cache and event bus (gochannel, or NATS with -tags nats)
 5. Notification dispatcher
 6. Reminder key store (none, memory, badger or redis) and scanner
 7. Alert throttle gate (memory or redis), evaluator and monitor
 8. Realtime hub, event bridge and HTTP router
 9. Supervisor tree

# Configuration

Common environment variables:

	DUCKDB_PATH                 database file (default /data/herald.duckdb)
	REMINDER_LOOKAHEAD_MINUTES  scan window (default 120, minimum 5)
	REMINDER_BATCH_SIZE         events per scan (default 50)
	REMINDER_KEYSTORE           none, memory, badger, redis
	ALERT_COOLDOWN              per-alert throttle (default 5m)
	ALERT_RECIPIENTS            comma-separated user IDs
	ALERT_SNAPSHOT_URL          metrics snapshot endpoint; empty disables the monitor
	REDIS_ADDR                  required when a redis backend is selected
	EVENTS_BACKEND              gochannel or nats
	HTTP_PORT                   listen port (default 8080)

See internal/config for the full list.

# Graceful Shutdown

SIGINT or SIGTERM cancels the root context. The supervisor stops every
service, waits up to the shutdown timeout, and reports any service that
failed to stop. Deferred closers then release the key
store, event bus, cache and database.
*/
package main

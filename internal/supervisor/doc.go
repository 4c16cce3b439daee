// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package supervisor runs Herald's long-lived components under a suture v4
supervisor tree.

	herald (root)
	├── data-layer
	│   ├── reminder-scheduler
	│   └── alert-monitor
	├── messaging-layer
	│   ├── realtime-hub
	│   └── event-bridge
	└── api-layer
	    └── http-server

Each layer is its own supervisor, so restarts stay local. Supervisor events
(restarts, backoff, panics) are logged through sutureslog into the zerolog
backed slog handler from internal/logging.

The adapters that turn Start/Stop components into suture services live in
the services subpackage.
*/
package supervisor

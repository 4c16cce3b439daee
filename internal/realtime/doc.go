// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

/*
Package realtime pushes notifications to connected users over WebSocket.

The Hub keeps a set of connections per user. A Bridge subscribes to the
event bus topics notifications.dispatched and notifications.updated and
hands each decoded notification to the hub:

	hub := realtime.NewHub()
	bridge := realtime.NewBridge(bus, hub)
	go hub.RunWithContext(ctx)
	_ = bridge.Start(ctx)

Dispatched notifications are pushed only once they are delivered. A
notification held back by quiet hours stays pending and is not pushed.

Wire format:

	{"type": "notification", "data": {...notification...}}
	{"type": "notification_updated", "data": {...notification...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. Each
connection has a bounded send buffer; a connection that falls behind is
closed rather than allowed to stall delivery to others.
*/
package realtime

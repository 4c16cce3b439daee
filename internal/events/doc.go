// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package events carries notification changes from the dispatcher to
// realtime consumers over Watermill.
//
// Two backends are available:
//
//   - gochannel (default): in-process Pub/Sub, no external broker.
//   - nats: JetStream through watermill-nats. Compiled only with -tags=nats;
//     other builds return an error from NewBus when it is selected.
//
// Topics:
//
//	notifications.dispatched  a notification was created
//	notifications.updated     a notification was read or dismissed
//
// Publishing is best-effort from the dispatcher's point of view: a publish
// error is logged by the caller and never fails the dispatch.
package events

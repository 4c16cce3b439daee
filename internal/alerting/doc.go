// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package alerting turns operational metrics into throttled alerts.
//
// The Evaluator checks a MetricsSnapshot for four conditions:
//   - metrics.stale (critical): the snapshot is older than StaleAfter
//   - ratelimit.surge (warning): blocked requests reached the threshold
//   - waf.escalation (critical): auto-blocked IPs reached the threshold
//   - queue.backlog (warning or critical by depth)
//
// Each active condition passes through a Gate with a per-key cooldown
// (default 5 minutes) before it is dispatched to every configured recipient.
// Critical alerts bypass quiet hours.
//
// ThrottleGate keeps the cooldown clock in process memory; each replica
// throttles independently. RedisThrottleGate runs the check-and-set as a
// Lua script so replicas sharing a Redis share one clock.
//
// The Monitor polls an HTTPSnapshotSource (behind a gobreaker circuit
// breaker) and evaluates each reading. Failures never escape the evaluator.
package alerting

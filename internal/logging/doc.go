// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package logging provides centralized zerolog-based logging for Herald.
//
// A single global logger is configured once from main via Init and is then
// used either directly (logging.Info(), logging.Error()) or through
// component loggers derived with logging.With().Str("component", ...).
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json", Timestamp: true})
//	logging.Info().Str("addr", addr).Msg("HTTP server listening")
//
// # Adapters
//
//   - SlogHandler feeds *slog.Logger consumers (the suture event hook).
//   - WatermillAdapter implements watermill.LoggerAdapter for the event bus.
//
// # Request scoping
//
// The API middleware stores the request ID in the context with
// ContextWithRequestID; Ctx(ctx) returns a logger carrying it.
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging

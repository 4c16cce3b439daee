// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package validation provides struct validation using go-playground/validator v10.
// It provides a thread-safe singleton validator instance with the custom
// validators Herald's request and event types need.
//
// Custom tags:
//   - clock: 24-hour HH:MM wall-clock time (quiet-hours bounds)
//
// Example usage:
//
//	type Event struct {
//	    UserID   string `validate:"required"`
//	    Priority string `validate:"omitempty,oneof=low normal high urgent"`
//	}
//
//	if err := validation.ValidateStruct(&ev); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	}
package validation

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package notification

import (
	"errors"

	"github.com/tomtom215/herald/internal/validation"
)

var (
	// ErrValidation is matched by every dispatch input error.
	ErrValidation = errors.New("notification validation failed")

	// ErrNotFound is returned when a notification does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid notification status transition")

	// ErrConflict is returned when a concurrent writer moved the status
	// between our read and our conditional update.
	ErrConflict = errors.New("notification status changed concurrently")
)

// ValidationError carries the field-level details of a rejected event.
// errors.Is(err, ErrValidation) reports true for it.
type ValidationError struct {
	Details *validation.RequestValidationError
}

func (e *ValidationError) Error() string {
	if e.Details == nil {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Details.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

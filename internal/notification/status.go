// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package notification

import (
	"fmt"

	"github.com/tomtom215/herald/internal/models"
)

// allowedTransitions lists the moves explicit user actions may make.
// pending -> delivered is not listed: flushing queued items when quiet
// hours end belongs to a collaborator.
var allowedTransitions = map[models.NotificationStatus][]models.NotificationStatus{
	models.StatusPending:   {models.StatusRead, models.StatusDismissed},
	models.StatusDelivered: {models.StatusRead, models.StatusDismissed},
}

// InitialStatus picks the status a new notification is created with.
//
//   - in-app disabled: dismissed, regardless of quiet hours or bypass
//   - quiet hours active and not bypassed: pending
//   - otherwise: delivered
func InitialStatus(inApp, quiet, bypass bool) models.NotificationStatus {
	switch {
	case !inApp:
		return models.StatusDismissed
	case quiet && !bypass:
		return models.StatusPending
	default:
		return models.StatusDelivered
	}
}

// Transition validates a status change. Requesting the status a terminal
// notification already has is allowed and means "nothing to do".
func Transition(from, to models.NotificationStatus) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: unknown status %q -> %q", ErrInvalidTransition, from, to)
	}
	if from == to && from.Terminal() {
		return nil
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

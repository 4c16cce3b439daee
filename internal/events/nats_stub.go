// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

//go:build !nats

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
)

// newNATSBus is unavailable without the nats build tag.
func newNATSBus(_ Config, _ watermill.LoggerAdapter) (*Bus, error) {
	return nil, fmt.Errorf("NATS events backend not available: build with -tags=nats")
}

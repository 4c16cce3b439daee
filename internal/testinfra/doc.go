// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run a real Redis for the Redis-backed
// throttle gate and reminder key store:
//
//	func TestRedisGate(t *testing.T) {
//	    client := testinfra.NewRedisClient(t)
//	    gate := alerting.NewRedisThrottleGate(client, 5*time.Minute, "")
//	    // ...
//	}
//
// All files carry the integration build tag:
//
//	go test -tags integration ./...
//
// Tests skip when Docker is unavailable.
package testinfra

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

//go:build integration

package testinfra

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

var (
	dockerOnce      sync.Once
	dockerAvailable bool
)

// RequireContainers skips t in -short mode or when no Docker daemon answers.
// The Redis-backed key store and throttle gate tests call it before
// starting a container.
func RequireContainers(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping container-backed test in short mode")
	}
	if !DockerAvailable() {
		t.Skip("Skipping container-backed test: docker daemon not reachable")
	}
}

// DockerAvailable reports whether `docker info` succeeds. The result is
// computed once per test binary.
func DockerAvailable() bool {
	dockerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dockerAvailable = exec.CommandContext(ctx, "docker", "info").Run() == nil
	})
	return dockerAvailable
}

// terminateOnCleanup stops c when t finishes. Termination failures are
// logged; a leaked Redis container is reaped by the testcontainers ryuk sidecar.
func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Helper()

	t.Cleanup(func() {
		if c == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminate %s container: %v", DefaultRedisImage, err)
		}
	})
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	RealtimeClients   int     `json:"realtime_clients"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Health reports liveness and dependency reachability. It answers 200
// with status "degraded" when the database is unreachable so that
// orchestrators keep routing reads that do not need it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := false
	if h.deps.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		dbConnected = h.deps.Database.Ping(ctx) == nil
		cancel()
	}

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	clients := 0
	if h.deps.Hub != nil {
		clients = h.deps.Hub.ClientCount()
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:            status,
		Version:           h.deps.Version,
		DatabaseConnected: dbConnected,
		RealtimeClients:   clients,
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	})
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/realtime"
)

// NotificationStream upgrades to a WebSocket that receives the caller's
// delivered notifications and status changes.
func (h *Handler) NotificationStream(checkOrigin func(origin string) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if checkOrigin(origin) {
				return true
			}
			logging.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
			return false
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}
		if h.deps.Hub == nil {
			NewResponseWriter(w, r).ServiceUnavailable("Realtime service unavailable")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := realtime.NewClient(h.deps.Hub, conn, userID)
		h.deps.Hub.Register <- client
		client.Start()
	}
}

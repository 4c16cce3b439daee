// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/metrics"
	"github.com/tomtom215/herald/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types pushed to clients.
const (
	MessageTypeNotification = "notification"
	MessageTypeUpdated      = "notification_updated"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is a WebSocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// delivery is a message addressed to one user's connections.
type delivery struct {
	userID  string
	message Message
}

// Hub tracks connected clients per user and routes messages to them.
type Hub struct {
	users      map[string]map[*Client]struct{}
	deliveries chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]struct{}),
		deliveries: make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err().
//
// Lifecycle events are drained before deliveries so that a client
// registered just before a message arrives always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.deliveries:
			h.deliver(d)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	set, ok := h.users[client.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[client.userID] = set
	}
	set[client] = struct{}{}
	total := h.countLocked()
	h.mu.Unlock()

	metrics.RealtimeClients.Set(float64(total))
	logging.Debug().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if set, ok := h.users[client.userID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
		}
		if len(set) == 0 {
			delete(h.users, client.userID)
		}
	}
	total := h.countLocked()
	h.mu.Unlock()

	metrics.RealtimeClients.Set(float64(total))
	logging.Debug().Str("user_id", client.userID).Int("total_clients", total).Msg("websocket client disconnected")
}

// deliver sends to the user's clients in ID order. Clients whose buffer is
// full are dropped.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.users[d.userID]
	if len(set) == 0 {
		return
	}

	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		select {
		case client.send <- d.message:
			metrics.RealtimeMessagesSent.WithLabelValues(d.message.Type).Inc()
		default:
			close(client.send)
			delete(set, client)
			logging.Warn().Str("user_id", d.userID).Uint64("client_id", client.id).Msg("websocket client too slow, dropping")
		}
	}
	if len(set) == 0 {
		delete(h.users, d.userID)
	}
	metrics.RealtimeClients.Set(float64(h.countLocked()))
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("realtime hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.users {
		for client := range set {
			close(client.send)
		}
		delete(h.users, userID)
	}
	metrics.RealtimeClients.Set(0)
}

// SendToUser queues msg for every connection of userID. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) SendToUser(userID string, msg Message) bool {
	select {
	case h.deliveries <- delivery{userID: userID, message: msg}:
		return true
	default:
		logging.Warn().Str("user_id", userID).Str("message_type", msg.Type).Msg("realtime queue full, dropping message")
		return false
	}
}

// PushNotification sends n to its recipient when it was delivered in-app.
// Pending notifications wait for quiet hours to end and dismissed ones mean
// the user turned in-app delivery off.
func (h *Hub) PushNotification(n *models.Notification) bool {
	if n.Status != models.StatusDelivered {
		return false
	}
	return h.SendToUser(n.UserID, Message{Type: MessageTypeNotification, Data: n})
}

// PushUpdate sends a status change of n to its recipient.
func (h *Hub) PushUpdate(n *models.Notification) bool {
	return h.SendToUser(n.UserID, Message{Type: MessageTypeUpdated, Data: n})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

// UserClientCount returns the number of connections held by userID.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) countLocked() int {
	total := 0
	for _, set := range h.users {
		total += len(set)
	}
	return total
}

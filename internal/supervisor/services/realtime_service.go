// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package services

import (
	"context"
	"errors"
	"fmt"
)

// ContextHub is satisfied by *realtime.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// RealtimeHubService runs the WebSocket hub's event loop.
type RealtimeHubService struct {
	hub  ContextHub
	name string
}

// NewRealtimeHubService wraps hub.
func NewRealtimeHubService(hub ContextHub) *RealtimeHubService {
	return &RealtimeHubService{hub: hub, name: "realtime-hub"}
}

// Serve implements suture.Service.
func (s *RealtimeHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture logs.
func (s *RealtimeHubService) String() string {
	return s.name
}

// EventBridge is satisfied by *realtime.Bridge.
type EventBridge interface {
	Start(ctx context.Context) error
	Stop()
	Done() <-chan struct{}
}

// EventBridgeService keeps the bus-to-hub bridge subscribed. If the
// bridge's subscriptions end on their own (bus closed, NATS drop) Serve
// returns an error so suture resubscribes.
type EventBridgeService struct {
	bridge EventBridge
	name   string
}

// NewEventBridgeService wraps bridge.
func NewEventBridgeService(bridge EventBridge) *EventBridgeService {
	return &EventBridgeService{bridge: bridge, name: "event-bridge"}
}

// Serve implements suture.Service.
func (s *EventBridgeService) Serve(ctx context.Context) error {
	if err := s.bridge.Start(ctx); err != nil {
		return fmt.Errorf("event bridge start failed: %w", err)
	}
	select {
	case <-ctx.Done():
		s.bridge.Stop()
		return ctx.Err()
	case <-s.bridge.Done():
		s.bridge.Stop()
		return errors.New("event bridge subscriptions closed")
	}
}

// String implements fmt.Stringer for suture logs.
func (s *EventBridgeService) String() string {
	return s.name
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/herald/internal/models"
)

// startHub runs a hub until the test ends.
func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func newTestClient(hub *Hub, userID string, buffer int) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		userID: userID,
		hub:    hub,
		send:   make(chan Message, buffer),
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatalf("client %d (%s): no message within timeout", c.id, c.userID)
		return Message{}, false
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Errorf("client %d (%s): unexpected message %+v", c.id, c.userID, msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_RoutesToRecipientOnly(t *testing.T) {
	hub, _ := startHub(t)

	alice1 := newTestClient(hub, "alice", 8)
	alice2 := newTestClient(hub, "alice", 8)
	bob := newTestClient(hub, "bob", 8)
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register <- c
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	if hub.UserClientCount("alice") != 2 {
		t.Errorf("UserClientCount(alice) = %d, want 2", hub.UserClientCount("alice"))
	}

	n := &models.Notification{ID: "n1", UserID: "alice", Status: models.StatusDelivered}
	if !hub.PushNotification(n) {
		t.Fatal("PushNotification returned false")
	}

	for _, c := range []*Client{alice1, alice2} {
		msg, ok := receive(t, c)
		if !ok || msg.Type != MessageTypeNotification {
			t.Errorf("client %d: got %+v, ok=%v", c.id, msg, ok)
		}
		if got := msg.Data.(*models.Notification); got.ID != "n1" {
			t.Errorf("client %d: notification id = %q", c.id, got.ID)
		}
	}
	expectNothing(t, bob)
}

func TestHub_PendingNotPushed(t *testing.T) {
	hub, _ := startHub(t)
	client := newTestClient(hub, "alice", 8)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	pending := &models.Notification{ID: "p", UserID: "alice", Status: models.StatusPending}
	if hub.PushNotification(pending) {
		t.Error("PushNotification(pending) = true, want false")
	}
	expectNothing(t, client)

	// A later status change is still surfaced.
	read := &models.Notification{ID: "p", UserID: "alice", Status: models.StatusRead}
	hub.PushUpdate(read)
	msg, _ := receive(t, client)
	if msg.Type != MessageTypeUpdated {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeUpdated)
	}
}

func TestHub_OnlyDeliveredPushed(t *testing.T) {
	hub, _ := startHub(t)
	client := newTestClient(hub, "alice", 8)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	tests := []struct {
		status models.NotificationStatus
		want   bool
	}{
		{models.StatusPending, false},
		{models.StatusDismissed, false},
		{models.StatusRead, false},
		{"", false},
		{models.StatusDelivered, true},
	}
	for _, tt := range tests {
		n := &models.Notification{ID: "n-" + string(tt.status), UserID: "alice", Status: tt.status}
		if got := hub.PushNotification(n); got != tt.want {
			t.Errorf("PushNotification(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}

	msg, _ := receive(t, client)
	if n, _ := msg.Data.(*models.Notification); n == nil || n.Status != models.StatusDelivered {
		t.Errorf("received %+v, want the delivered notification", msg.Data)
	}
	expectNothing(t, client)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	client := newTestClient(hub, "alice", 8)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}
	if hub.UserClientCount("alice") != 0 {
		t.Error("user entry should be removed")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub, _ := startHub(t)
	slow := newTestClient(hub, "alice", 1)
	fast := newTestClient(hub, "alice", 8)
	hub.Register <- slow
	hub.Register <- fast
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	for i := 0; i < 3; i++ {
		hub.PushUpdate(&models.Notification{ID: "n", UserID: "alice", Status: models.StatusRead})
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if hub.UserClientCount("alice") != 1 {
		t.Errorf("UserClientCount = %d, want 1", hub.UserClientCount("alice"))
	}
	for i := 0; i < 3; i++ {
		if _, ok := receive(t, fast); !ok {
			t.Fatal("fast client channel closed")
		}
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()

	client := newTestClient(hub, "alice", 8)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed on shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d after shutdown", hub.ClientCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	deadline, cancel2 := context.WithTimeout(context.Background(), -time.Second)
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %q", got)
	}
	if got := getShutdownReason(deadline); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %q", got)
	}
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/herald/internal/events"
	"github.com/tomtom215/herald/internal/models"
)

// recordingPusher captures what the bridge hands over.
type recordingPusher struct {
	mu      sync.Mutex
	pushed  []string
	updated []string
}

func (p *recordingPusher) PushNotification(n *models.Notification) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, n.ID)
	return true
}

func (p *recordingPusher) PushUpdate(n *models.Notification) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, n.ID+":"+string(n.Status))
	return true
}

func (p *recordingPusher) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed), len(p.updated)
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nil, errors.New("subscribe failed")
}

func TestBridge_ForwardsBothTopics(t *testing.T) {
	bus := events.NewGoChannelBus(16, nil)
	defer func() { _ = bus.Close() }()

	pusher := &recordingPusher{}
	bridge := NewBridge(bus, pusher)
	ctx := context.Background()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer bridge.Stop()

	n := &models.Notification{ID: "n1", UserID: "alice", Status: models.StatusDelivered, CreatedAt: time.Now()}
	if err := bus.Publish(ctx, events.TopicDispatched, n); err != nil {
		t.Fatalf("Publish dispatched: %v", err)
	}
	n.Status = models.StatusRead
	if err := bus.Publish(ctx, events.TopicUpdated, n); err != nil {
		t.Fatalf("Publish updated: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		pushed, updated := pusher.counts()
		if pushed == 1 && updated == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pushed=%d updated=%d, want 1 and 1", pushed, updated)
		}
		time.Sleep(5 * time.Millisecond)
	}

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	if pusher.pushed[0] != "n1" || pusher.updated[0] != "n1:read" {
		t.Errorf("pushed=%v updated=%v", pusher.pushed, pusher.updated)
	}
}

func TestBridge_EndToEndSkipsUndelivered(t *testing.T) {
	bus := events.NewGoChannelBus(16, nil)
	defer func() { _ = bus.Close() }()

	hub, _ := startHub(t)
	client := newTestClient(hub, "alice", 8)
	hub.Register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	bridge := NewBridge(bus, hub)
	ctx := context.Background()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer bridge.Stop()

	_ = bus.Publish(ctx, events.TopicDispatched, &models.Notification{ID: "quiet", UserID: "alice", Status: models.StatusPending})
	_ = bus.Publish(ctx, events.TopicDispatched, &models.Notification{ID: "opted-out", UserID: "alice", Status: models.StatusDismissed})
	_ = bus.Publish(ctx, events.TopicDispatched, &models.Notification{ID: "loud", UserID: "alice", Status: models.StatusDelivered})

	msg, ok := receive(t, client)
	if !ok {
		t.Fatal("client closed")
	}
	raw, _ := msg.Data.(*models.Notification)
	if raw == nil || raw.ID != "loud" {
		t.Errorf("first pushed notification = %+v, want loud", msg.Data)
	}
	expectNothing(t, client)
}

func TestBridge_Lifecycle(t *testing.T) {
	bus := events.NewGoChannelBus(16, nil)
	defer func() { _ = bus.Close() }()

	bridge := NewBridge(bus, &recordingPusher{})
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !bridge.IsRunning() {
		t.Error("IsRunning = false after Start")
	}
	if err := bridge.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
	bridge.Stop()
	bridge.Stop()
	if bridge.IsRunning() {
		t.Error("IsRunning = true after Stop")
	}
}

func TestBridge_SubscribeError(t *testing.T) {
	bridge := NewBridge(failingSubscriber{}, &recordingPusher{})
	if err := bridge.Start(context.Background()); err == nil {
		t.Fatal("expected subscribe error")
	}
	if bridge.IsRunning() {
		t.Error("bridge should not be running after a failed Start")
	}
}

// closingSubscriber hands out channels the test can close to simulate a
// bus dropping its subscriptions.
type closingSubscriber struct {
	mu    sync.Mutex
	chans []chan *message.Message
}

func (s *closingSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *message.Message)
	s.chans = append(s.chans, ch)
	return ch, nil
}

func (s *closingSubscriber) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		close(ch)
	}
	s.chans = nil
}

func TestBridge_DoneWhenSubscriptionsClose(t *testing.T) {
	sub := &closingSubscriber{}
	bridge := NewBridge(sub, &recordingPusher{})

	if bridge.Done() != nil {
		t.Error("Done should be nil before Start")
	}
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := bridge.Done()

	select {
	case <-done:
		t.Fatal("Done closed while subscriptions are open")
	case <-time.After(20 * time.Millisecond):
	}

	sub.closeAll()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Done not closed after subscriptions ended")
	}

	// Stop after a drop clears the running flag so the bridge can restart.
	bridge.Stop()
	if err := bridge.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	bridge.Stop()
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/herald/internal/events"
	"github.com/tomtom215/herald/internal/logging"
	"github.com/tomtom215/herald/internal/models"
)

// Subscriber is the part of the event bus the bridge consumes.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Pusher receives decoded notifications. *Hub implements it.
type Pusher interface {
	PushNotification(n *models.Notification) bool
	PushUpdate(n *models.Notification) bool
}

// Bridge forwards notification events from the bus to the hub.
type Bridge struct {
	subscriber Subscriber
	pusher     Pusher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      *sync.WaitGroup
}

// NewBridge creates a bridge from subscriber to pusher.
func NewBridge(subscriber Subscriber, pusher Pusher) *Bridge {
	return &Bridge{
		subscriber: subscriber,
		pusher:     pusher,
	}
}

// Start subscribes to the dispatched and updated topics.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("bridge already running")
	}

	subCtx, cancel := context.WithCancel(ctx)
	topics := []string{events.TopicDispatched, events.TopicUpdated}
	channels := make([]<-chan *message.Message, 0, len(topics))
	for _, topic := range topics {
		ch, err := b.subscriber.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		channels = append(channels, ch)
	}

	b.running = true
	b.cancel = cancel
	b.done = make(chan struct{})
	// Each run gets its own WaitGroup so a restart never races the
	// previous run's waiter.
	wg := &sync.WaitGroup{}
	b.wg = wg
	for i, ch := range channels {
		wg.Add(1)
		go b.consume(subCtx, wg, topics[i], ch)
	}
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(b.done)

	logging.Info().Strs("topics", topics).Msg("Realtime event bridge started")
	return nil
}

// Stop cancels the subscriptions and waits for the consumers to exit.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	cancel := b.cancel
	wg := b.wg
	b.mu.Unlock()

	cancel()
	wg.Wait()
	logging.Info().Msg("Realtime event bridge stopped")
}

// Done is closed once every consumer has exited, whether through Stop or
// because the bus closed a subscription. It is nil before the first Start.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// IsRunning reports whether the bridge is consuming.
func (b *Bridge) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Bridge) consume(ctx context.Context, wg *sync.WaitGroup, topic string, messages <-chan *message.Message) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handle(topic, msg)
		}
	}
}

// handle always acks; a malformed event cannot become deliverable by retrying.
func (b *Bridge) handle(topic string, msg *message.Message) {
	defer msg.Ack()

	ev, err := events.Decode(msg)
	if err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("Dropping undecodable notification event")
		return
	}

	n := &ev.Notification
	switch topic {
	case events.TopicDispatched:
		b.pusher.PushNotification(n)
	case events.TopicUpdated:
		b.pusher.PushUpdate(n)
	}
}

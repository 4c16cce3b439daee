// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/herald/internal/models"
)

// Topics published by the dispatcher.
const (
	TopicDispatched = "notifications.dispatched"
	TopicUpdated    = "notifications.updated"
)

// Backend names accepted by NewBus.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// Metadata keys set on every message.
const (
	MetadataUserID = "user_id"
	MetadataStatus = "status"
)

// Config selects and tunes the Pub/Sub backend.
type Config struct {
	Backend string

	// BufferSize is the gochannel per-subscriber output buffer.
	BufferSize int64

	// NATS settings, used only by the nats backend.
	NATSURL       string
	QueueGroup    string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns an in-process configuration.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendGoChannel,
		BufferSize:    256,
		NATSURL:       "nats://127.0.0.1:4222",
		QueueGroup:    "herald",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NotificationEvent is the message body on both topics.
type NotificationEvent struct {
	Topic        string              `json:"topic"`
	Notification models.Notification `json:"notification"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// Bus publishes and subscribes notification events.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	backend    string
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus for cfg.Backend.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	switch cfg.Backend {
	case "", BackendGoChannel:
		return NewGoChannelBus(cfg.BufferSize, logger), nil
	case BackendNATS:
		return newNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// NewGoChannelBus creates an in-process bus.
func NewGoChannelBus(bufferSize int64, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
	}, logger)

	return &Bus{
		publisher:  pubSub,
		subscriber: pubSub,
		backend:    BackendGoChannel,
		logger:     logger,
	}
}

// Backend returns the backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Publish sends n on topic.
func (b *Bus) Publish(ctx context.Context, topic string, n *models.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus is closed")
	}

	data, err := json.Marshal(NotificationEvent{
		Topic:        topic,
		Notification: *n,
		OccurredAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.Metadata.Set(MetadataUserID, n.UserID)
	msg.Metadata.Set(MetadataStatus, string(n.Status))
	msg.SetContext(ctx)

	if err := b.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe returns the message stream for topic. Consumers must Ack or
// Nack every message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// Close shuts down both sides of the bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.publisher.Close()
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if subErr := b.subscriber.Close(); subErr != nil && err == nil {
			err = subErr
		}
	}
	return err
}

// Decode parses a message produced by Publish.
func Decode(msg *message.Message) (*NotificationEvent, error) {
	var ev NotificationEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("decode notification event %s: %w", msg.UUID, err)
	}
	return &ev, nil
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/herald/internal/metrics"
)

// Key store backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

var (
	// ErrAlreadyClaimed indicates another scan already owns the key.
	ErrAlreadyClaimed = errors.New("reminder key already claimed")

	// ErrKeyStoreClosed indicates the store has been closed.
	ErrKeyStoreClosed = errors.New("reminder key store is closed")
)

// KeyStore is a dedicated idempotency store for reminder keys. It sits
// alongside the remindersSent marker on the event and closes the window
// between dispatch and marker write.
type KeyStore interface {
	// Claim atomically records key if it is not already held.
	// Returns ErrAlreadyClaimed if an unexpired claim exists.
	Claim(ctx context.Context, key string, ttl time.Duration) error

	// Release drops a claim so a later scan may retry.
	Release(ctx context.Context, key string) error

	// Seen reports whether an unexpired claim exists.
	Seen(ctx context.Context, key string) (bool, error)

	// CleanupExpired removes expired claims and returns how many were removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Size returns the approximate number of claims held.
	Size(ctx context.Context) (int, error)

	Close() error
}

// MemoryKeyStore is an in-process KeyStore. Claims are lost on restart.
type MemoryKeyStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time // key -> expiry
	closed  bool
	now     func() time.Time
}

// NewMemoryKeyStore creates an empty in-memory key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Claim atomically checks and stores key.
func (s *MemoryKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		metrics.RecordKeyStoreOp(BackendMemory, "claim", ErrKeyStoreClosed)
		return ErrKeyStoreClosed
	}

	now := s.now()
	if expiresAt, ok := s.entries[key]; ok && now.Before(expiresAt) {
		metrics.KeyStoreOperations.WithLabelValues(BackendMemory, "claim", "already_claimed").Inc()
		return ErrAlreadyClaimed
	}

	s.entries[key] = now.Add(ttl)
	metrics.RecordKeyStoreOp(BackendMemory, "claim", nil)
	return nil
}

// Release removes key.
func (s *MemoryKeyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrKeyStoreClosed
	}
	delete(s.entries, key)
	metrics.RecordKeyStoreOp(BackendMemory, "release", nil)
	return nil
}

// Seen reports whether key holds an unexpired claim.
func (s *MemoryKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, ErrKeyStoreClosed
	}
	expiresAt, ok := s.entries[key]
	return ok && s.now().Before(expiresAt), nil
}

// CleanupExpired removes expired claims.
func (s *MemoryKeyStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrKeyStoreClosed
	}

	count := 0
	now := s.now()
	for key, expiresAt := range s.entries {
		if !now.Before(expiresAt) {
			delete(s.entries, key)
			count++
		}
	}
	metrics.RecordKeyStoreOp(BackendMemory, "cleanup", nil)
	return count, nil
}

// Size returns the number of claims, expired or not.
func (s *MemoryKeyStore) Size(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrKeyStoreClosed
	}
	return len(s.entries), nil
}

// Close closes the store.
func (s *MemoryKeyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}

// StartCleanupRoutine periodically removes expired claims from store.
// Close the returned channel to stop the routine.
func StartCleanupRoutine(store KeyStore, interval time.Duration, logger zerolog.Logger) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				count, err := store.CleanupExpired(ctx)
				cancel()

				if err != nil {
					logger.Error().Err(err).Msg("Reminder key cleanup failed")
				} else if count > 0 {
					logger.Debug().Int("count", count).Msg("Reminder key cleanup completed")
				}

			case <-done:
				return
			}
		}
	}()

	return done
}

// Herald - Notification Dispatch and Scheduling Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/herald

package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/herald/internal/metrics"
)

// DefaultRedisKeyPrefix namespaces reminder claims in a shared Redis.
const DefaultRedisKeyPrefix = "herald:reminder:"

// RedisKeyStore is a KeyStore backed by Redis SET NX with a millisecond TTL,
// so replicas sharing one Redis never claim the same reminder twice.
type RedisKeyStore struct {
	client redis.UniversalClient
	prefix string
	mu     sync.RWMutex
	closed bool
}

// NewRedisKeyStore creates a key store over client. The client is not owned
// by the store.
func NewRedisKeyStore(client redis.UniversalClient, prefix string) *RedisKeyStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisKeyStore{client: client, prefix: prefix}
}

func (s *RedisKeyStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Claim sets key only if absent.
func (s *RedisKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) error {
	if s.isClosed() {
		metrics.RecordKeyStoreOp(BackendRedis, "claim", ErrKeyStoreClosed)
		return ErrKeyStoreClosed
	}

	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		metrics.RecordKeyStoreOp(BackendRedis, "claim", err)
		return err
	}
	if !ok {
		metrics.KeyStoreOperations.WithLabelValues(BackendRedis, "claim", "already_claimed").Inc()
		return ErrAlreadyClaimed
	}
	metrics.RecordKeyStoreOp(BackendRedis, "claim", nil)
	return nil
}

// Release deletes key.
func (s *RedisKeyStore) Release(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrKeyStoreClosed
	}
	err := s.client.Del(ctx, s.prefix+key).Err()
	metrics.RecordKeyStoreOp(BackendRedis, "release", err)
	return err
}

// Seen reports whether key exists. Redis drops expired keys itself.
func (s *RedisKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	if s.isClosed() {
		return false, ErrKeyStoreClosed
	}
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpired is a no-op: Redis expires keys natively.
func (s *RedisKeyStore) CleanupExpired(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrKeyStoreClosed
	}
	return 0, nil
}

// Size counts keys under the store prefix with SCAN.
func (s *RedisKeyStore) Size(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrKeyStoreClosed
	}

	count := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

// Close marks the store closed. The shared client stays open.
func (s *RedisKeyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

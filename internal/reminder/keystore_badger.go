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

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/herald/internal/metrics"
)

// DefaultBadgerKeyPrefix namespaces reminder claims inside a shared BadgerDB.
const DefaultBadgerKeyPrefix = "reminder:"

type claimEntry struct {
	Key       string    `json:"key"`
	ClaimedAt time.Time `json:"claimed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BadgerKeyStore is a BadgerDB-backed KeyStore that survives restarts.
// Entries carry a native TTL; the stored expiry is checked as well because
// Badger TTLs have one-second granularity.
type BadgerKeyStore struct {
	db     *badger.DB
	prefix []byte
	closed bool
	mu     sync.RWMutex
	now    func() time.Time
}

// NewBadgerKeyStore creates a key store over db. The DB is not owned by the
// store and is left open by Close.
func NewBadgerKeyStore(db *badger.DB, prefix string) *BadgerKeyStore {
	if prefix == "" {
		prefix = DefaultBadgerKeyPrefix
	}
	return &BadgerKeyStore{
		db:     db,
		prefix: []byte(prefix),
		now:    time.Now,
	}
}

// OpenBadger opens a BadgerDB at path for reminder claims.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	return badger.Open(opts)
}

func (s *BadgerKeyStore) makeKey(key string) []byte {
	out := make([]byte, 0, len(s.prefix)+len(key))
	out = append(out, s.prefix...)
	return append(out, key...)
}

func (s *BadgerKeyStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Claim atomically checks and stores key inside one Badger transaction.
func (s *BadgerKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) error {
	if s.isClosed() {
		metrics.RecordKeyStoreOp(BackendBadger, "claim", ErrKeyStoreClosed)
		return ErrKeyStoreClosed
	}

	now := s.now()
	dbKey := s.makeKey(key)

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(dbKey)
		if err == nil {
			var existing claimEntry
			if valErr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); valErr == nil && now.Before(existing.ExpiresAt) {
				return ErrAlreadyClaimed
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(claimEntry{Key: key, ClaimedAt: now, ExpiresAt: now.Add(ttl)})
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(dbKey, data).WithTTL(ttl))
	})

	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		metrics.KeyStoreOperations.WithLabelValues(BackendBadger, "claim", "already_claimed").Inc()
	case errors.Is(err, badger.ErrConflict):
		// A concurrent transaction wrote the key first.
		metrics.KeyStoreOperations.WithLabelValues(BackendBadger, "claim", "already_claimed").Inc()
		return ErrAlreadyClaimed
	default:
		metrics.RecordKeyStoreOp(BackendBadger, "claim", err)
	}
	return err
}

// Release deletes key.
func (s *BadgerKeyStore) Release(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrKeyStoreClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.makeKey(key))
	})
	metrics.RecordKeyStoreOp(BackendBadger, "release", err)
	return err
}

// Seen reports whether key holds an unexpired claim.
func (s *BadgerKeyStore) Seen(ctx context.Context, key string) (bool, error) {
	if s.isClosed() {
		return false, ErrKeyStoreClosed
	}

	var seen bool
	now := s.now()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.makeKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var entry claimEntry
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			seen = now.Before(entry.ExpiresAt)
			return nil
		})
	})
	return seen, err
}

// CleanupExpired removes claims whose stored expiry has passed. Badger also
// drops TTL-expired entries on its own during compaction.
func (s *BadgerKeyStore) CleanupExpired(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrKeyStoreClosed
	}

	count := 0
	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var expired [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry claimEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if !now.Before(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}

		for _, key := range expired {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})

	metrics.RecordKeyStoreOp(BackendBadger, "cleanup", err)
	return count, err
}

// Size returns the number of claims under the store prefix.
func (s *BadgerKeyStore) Size(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, ErrKeyStoreClosed
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close marks the store closed. The shared DB stays open.
func (s *BadgerKeyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

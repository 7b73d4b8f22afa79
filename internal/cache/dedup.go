// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/logging"
)

// ErrUnsupportedBackend is returned for an unknown dedup.backend.
var ErrUnsupportedBackend = errors.New("unsupported dedup backend")

// DedupStore is a detection.DedupStore that owns resources.
type DedupStore interface {
	LastAlert(ctx context.Context, key detection.AlertKey) (time.Time, bool, error)
	RecordAlert(ctx context.Context, key detection.AlertKey, at time.Time) error
	Close() error
}

var (
	_ DedupStore = (*MemoryDedupStore)(nil)
	_ DedupStore = (*RedisDedupStore)(nil)
)

// retention is how long an alert record must outlive its cooldown. Entries
// are never dropped before one full cooldown has passed.
func retention(cooldown time.Duration, multiple int) time.Duration {
	if multiple < 1 {
		multiple = 1
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return cooldown * time.Duration(multiple)
}

// MemoryDedupStore keeps alert times in a bounded in-process LRU. Records
// are lost on restart.
type MemoryDedupStore struct {
	entries     *LRUCache[time.Time]
	stopCleanup func()
}

// NewMemoryDedupStore creates a store that holds at most capacity keys and
// forgets a key evictAfter cooldowns after its last alert. Expired keys are
// swept once per cooldown until Close.
func NewMemoryDedupStore(capacity int, cooldown time.Duration, evictAfter int) *MemoryDedupStore {
	entries := NewLRUCache[time.Time](capacity, retention(cooldown, evictAfter))
	return &MemoryDedupStore{
		entries:     entries,
		stopCleanup: entries.StartCleanup(retention(cooldown, 1)),
	}
}

// SetClock replaces the expiry time source. Intended for tests.
func (s *MemoryDedupStore) SetClock(now func() time.Time) {
	s.entries.SetClock(now)
}

// LastAlert implements detection.DedupStore.
func (s *MemoryDedupStore) LastAlert(_ context.Context, key detection.AlertKey) (time.Time, bool, error) {
	at, ok := s.entries.Get(key.String())
	return at, ok, nil
}

// RecordAlert implements detection.DedupStore.
func (s *MemoryDedupStore) RecordAlert(_ context.Context, key detection.AlertKey, at time.Time) error {
	s.entries.Add(key.String(), at)
	return nil
}

// Len returns the number of tracked keys.
func (s *MemoryDedupStore) Len() int {
	return s.entries.Len()
}

// Close stops the expiry sweep. It is safe to call more than once.
func (s *MemoryDedupStore) Close() error {
	s.stopCleanup()
	return nil
}

// RedisDedupStore keeps alert times in Redis so cooldowns survive monitor
// restarts. Keys expire on their own.
type RedisDedupStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDedupStore wraps an existing client.
func NewRedisDedupStore(client *redis.Client, prefix string, cooldown time.Duration, evictAfter int) (*RedisDedupStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if prefix == "" {
		prefix = "credguard:alert:"
	}
	return &RedisDedupStore{
		client: client,
		prefix: prefix,
		ttl:    retention(cooldown, evictAfter),
	}, nil
}

func (s *RedisDedupStore) redisKey(key detection.AlertKey) string {
	return s.prefix + key.String()
}

// LastAlert implements detection.DedupStore.
func (s *RedisDedupStore) LastAlert(ctx context.Context, key detection.AlertKey) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse alert time for %s: %w", key, err)
	}
	return at.UTC(), true, nil
}

// RecordAlert implements detection.DedupStore.
func (s *RedisDedupStore) RecordAlert(ctx context.Context, key detection.AlertKey, at time.Time) error {
	err := s.client.Set(ctx, s.redisKey(key), at.UTC().Format(time.RFC3339Nano), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

// OpenDedupStore returns the store selected by cfg.Backend. The redis
// backend is pinged before it is returned.
func OpenDedupStore(ctx context.Context, cfg config.DedupConfig, cooldown time.Duration) (DedupStore, error) {
	switch cfg.Backend {
	case "", config.DedupMemory:
		return NewMemoryDedupStore(cfg.Capacity, cooldown, cfg.EvictAfterCooldowns), nil
	case config.DedupRedis:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logging.Info().Str("addr", cfg.RedisAddr).Msg("Alert dedup store using redis")
		return NewRedisDedupStore(client, cfg.RedisPrefix, cooldown, cfg.EvictAfterCooldowns)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
)

var testKey = detection.AlertKey{TenantKey: "tenant-a", UserID: "alice", IP: "203.0.113.7"}

func TestMemoryDedupStore_RecordAndLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDedupStore(10, 5*time.Minute, 2)
	defer store.Close()

	if _, found, err := store.LastAlert(ctx, testKey); err != nil || found {
		t.Fatalf("empty store LastAlert() = found %v, err %v", found, err)
	}

	at := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if err := store.RecordAlert(ctx, testKey, at); err != nil {
		t.Fatalf("RecordAlert() error = %v", err)
	}

	got, found, err := store.LastAlert(ctx, testKey)
	if err != nil || !found || !got.Equal(at) {
		t.Errorf("LastAlert() = %v, %v, %v; want %v", got, found, err, at)
	}

	other := testKey
	other.TenantKey = "tenant-b"
	if _, found, _ := store.LastAlert(ctx, other); found {
		t.Error("keys of different tenants must not collide")
	}
}

func TestMemoryDedupStore_RetainsForAtLeastOneCooldown(t *testing.T) {
	tests := []struct {
		name       string
		evictAfter int
		keptFor    time.Duration
	}{
		{"zero multiple clamps to one cooldown", 0, 5 * time.Minute},
		{"three cooldowns", 3, 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			store := NewMemoryDedupStore(10, 5*time.Minute, tt.evictAfter)
			defer store.Close()
			store.SetClock(clock.Now)

			if err := store.RecordAlert(ctx, testKey, clock.Now()); err != nil {
				t.Fatal(err)
			}

			clock.advance(tt.keptFor)
			if _, found, _ := store.LastAlert(ctx, testKey); !found {
				t.Fatalf("record dropped before %v", tt.keptFor)
			}

			clock.advance(time.Second)
			if _, found, _ := store.LastAlert(ctx, testKey); found {
				t.Errorf("record kept past %v", tt.keptFor)
			}
		})
	}
}

func TestMemoryDedupStore_SweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryDedupStore(10, 10*time.Millisecond, 1)
	store.SetClock(clock.Now)

	for _, user := range []string{"alice", "bob", "carol"} {
		key := testKey
		key.UserID = user
		if err := store.RecordAlert(ctx, key, clock.Now()); err != nil {
			t.Fatal(err)
		}
	}
	clock.advance(time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expired keys not swept, Len() = %d", store.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func setupTestRedis(t *testing.T) (*RedisDedupStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, err := NewRedisDedupStore(client, "test:", 5*time.Minute, 2)
	if err != nil {
		t.Fatalf("NewRedisDedupStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestRedisDedupStore_RecordAndLookup(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	if _, found, err := store.LastAlert(ctx, testKey); err != nil || found {
		t.Fatalf("empty store LastAlert() = found %v, err %v", found, err)
	}

	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 3, 14, 17, 30, 0, 250, ist)
	if err := store.RecordAlert(ctx, testKey, at); err != nil {
		t.Fatalf("RecordAlert() error = %v", err)
	}

	got, found, err := store.LastAlert(ctx, testKey)
	if err != nil || !found || !got.Equal(at) {
		t.Errorf("LastAlert() = %v, %v, %v; want %v", got, found, err, at)
	}

	redisKey := "test:" + testKey.String()
	if ttl := mr.TTL(redisKey); ttl != 10*time.Minute {
		t.Errorf("TTL = %v, want 10m", ttl)
	}

	mr.FastForward(10*time.Minute + time.Second)
	if _, found, _ := store.LastAlert(ctx, testKey); found {
		t.Error("record should expire with its redis TTL")
	}
}

func TestRedisDedupStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, mr := setupTestRedis(t)

	if err := mr.Set("test:"+testKey.String(), "garbage"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.LastAlert(ctx, testKey); err == nil {
		t.Error("expected parse error for corrupt value")
	}

	mr.Close()
	if _, _, err := store.LastAlert(ctx, testKey); err == nil {
		t.Error("expected error when redis is unreachable")
	}
}

func TestOpenDedupStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.DedupConfig
		wantErr error
		wantAny bool
	}{
		{name: "memory default", cfg: config.DedupConfig{}},
		{name: "redis", cfg: config.DedupConfig{Backend: config.DedupRedis, RedisAddr: mr.Addr()}},
		{name: "redis unreachable", cfg: config.DedupConfig{Backend: config.DedupRedis, RedisAddr: "127.0.0.1:1"}, wantAny: true},
		{name: "unknown", cfg: config.DedupConfig{Backend: "memcached"}, wantErr: ErrUnsupportedBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenDedupStore(ctx, tt.cfg, time.Minute)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil {
					t.Fatal("expected connection error")
				}
			default:
				if err != nil {
					t.Fatalf("OpenDedupStore() error = %v", err)
				}
				_ = store.Close()
			}
		})
	}
}

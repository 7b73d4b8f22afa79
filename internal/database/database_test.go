// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

var (
	// DuckDB CGO calls misbehave under heavy parallel creation; limit it.
	testDBSemaphore = make(chan struct{}, 2)
	testDBMutex     sync.Mutex
)

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   1,
	}

	type result struct {
		db  *DB
		err error
	}

	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Logf("close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(30 * time.Second):
		t.Fatal("Timed out creating test database")
		return nil
	}
}

func strPtr(s string) *string { return &s }

func loginEvent(tenant, user, ip string, success bool, offset time.Duration) *detection.LoginEvent {
	return &detection.LoginEvent{
		TenantKey:         tenant,
		UserID:            user,
		IP:                ip,
		DeviceFingerprint: "fp-" + user,
		Success:           success,
		Timestamp:         baseTime.Add(offset),
	}
}

func insertAll(t *testing.T, db *DB, events ...*detection.LoginEvent) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range events {
		if err := db.InsertLoginEvent(ctx, ev); err != nil {
			t.Fatalf("InsertLoginEvent: %v", err)
		}
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	path := filepath.Join(t.TempDir(), "nested", "events.duckdb")
	db, err := New(&config.DatabaseConfig{Path: path, Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.DatabaseConfig{Driver: "oracle"})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("Open() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestOpenCheckpointStore(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.CheckpointConfig
		wantErr error
	}{
		{"file", config.CheckpointConfig{Backend: config.CheckpointFile, Path: filepath.Join(dir, "cp")}, nil},
		{"default is file", config.CheckpointConfig{Path: filepath.Join(dir, "cp2")}, nil},
		{"badger", config.CheckpointConfig{Backend: config.CheckpointBadger, Path: filepath.Join(dir, "badger")}, nil},
		{"database", config.CheckpointConfig{Backend: config.CheckpointDatabase}, nil},
		{"unknown", config.CheckpointConfig{Backend: "etcd"}, ErrUnsupportedCheckpointBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenCheckpointStore(tt.cfg, db)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenCheckpointStore() error = %v", err)
			}
			defer closeQuietly(store)

			if _, found, err := store.Read(context.Background()); err != nil || found {
				t.Errorf("fresh store Read() = found %v, err %v", found, err)
			}
		})
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	readCheckpointSQL  = `SELECT checkpoint FROM monitor_checkpoint WHERE id = 1`
	writeCheckpointSQL = `INSERT INTO monitor_checkpoint (id, checkpoint) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET checkpoint = excluded.checkpoint`

	badgerCheckpointKey = "monitor/checkpoint"
)

// Checkpointer is a detection.CheckpointStore that owns resources.
type Checkpointer interface {
	Read(ctx context.Context) (time.Time, bool, error)
	Write(ctx context.Context, t time.Time) error
	Close() error
}

// TableCheckpointStore keeps the checkpoint in the monitor_checkpoint table
// of the event database.
type TableCheckpointStore struct {
	read  func(ctx context.Context) (*time.Time, error)
	write func(ctx context.Context, t time.Time) error
}

// CheckpointStore returns a checkpoint store persisted in this database.
func (db *DB) CheckpointStore() *TableCheckpointStore {
	return &TableCheckpointStore{
		read: func(ctx context.Context) (*time.Time, error) {
			var ts time.Time
			err := db.conn.QueryRowContext(ctx, readCheckpointSQL).Scan(&ts)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &ts, nil
		},
		write: func(ctx context.Context, t time.Time) error {
			_, err := db.conn.ExecContext(ctx, writeCheckpointSQL, t.UTC())
			return err
		},
	}
}

// Read returns the stored checkpoint, false when none was written.
func (s *TableCheckpointStore) Read(ctx context.Context) (time.Time, bool, error) {
	ts, err := s.read(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return ts.UTC(), true, nil
}

// Write upserts the checkpoint row.
func (s *TableCheckpointStore) Write(ctx context.Context, t time.Time) error {
	if err := s.write(ctx, t); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Close is a no-op; the connection belongs to the event store.
func (s *TableCheckpointStore) Close() error { return nil }

// FileCheckpointStore keeps the checkpoint as an RFC 3339 timestamp in a
// single file. Writes go through a temp file and rename.
type FileCheckpointStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCheckpointStore creates the parent directory of path if needed.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if path == "" {
		return nil, errors.New("checkpoint path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", dir, err)
		}
	}
	return &FileCheckpointStore{path: path}, nil
}

// Read returns the stored checkpoint, false when the file does not exist.
func (s *FileCheckpointStore) Read(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint file: %w", err)
	}
	return parseCheckpoint(data)
}

// Write replaces the checkpoint file atomically and fsyncs it.
func (s *FileCheckpointStore) Write(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(formatCheckpoint(t)); err != nil {
		closeQuietly(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		closeQuietly(tmp)
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync checkpoint temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *FileCheckpointStore) Close() error { return nil }

// BadgerCheckpointStore keeps the checkpoint in an embedded BadgerDB with
// synchronous writes.
type BadgerCheckpointStore struct {
	db *badger.DB
}

// NewBadgerCheckpointStore opens (or creates) a BadgerDB in dir.
func NewBadgerCheckpointStore(dir string) (*BadgerCheckpointStore, error) {
	if dir == "" {
		return nil, errors.New("checkpoint path is required")
	}

	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerCheckpointStore{db: db}, nil
}

// Read returns the stored checkpoint, false when none was written.
func (s *BadgerCheckpointStore) Read(_ context.Context) (time.Time, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerCheckpointKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	return parseCheckpoint(data)
}

// Write stores t. The write is synced before Update returns.
func (s *BadgerCheckpointStore) Write(_ context.Context, t time.Time) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerCheckpointKey), []byte(formatCheckpoint(t)))
	})
	if err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// Close closes the BadgerDB.
func (s *BadgerCheckpointStore) Close() error {
	return s.db.Close()
}

func formatCheckpoint(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseCheckpoint(data []byte) (time.Time, bool, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse checkpoint %q: %w", text, err)
	}
	return t.UTC(), true, nil
}

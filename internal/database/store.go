// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
)

// Store is a login event store: the detection read side plus ingestion.
type Store interface {
	FetchEvents(ctx context.Context, q detection.EventQuery) ([]detection.LoginEvent, error)
	LatestEventTime(ctx context.Context) (time.Time, bool, error)
	InsertLoginEvent(ctx context.Context, ev *detection.LoginEvent) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*PostgresStore)(nil)

	_ detection.CheckpointStore = (*TableCheckpointStore)(nil)
	_ detection.CheckpointStore = (*FileCheckpointStore)(nil)
	_ detection.CheckpointStore = (*BadgerCheckpointStore)(nil)
)

// Open returns the event store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverDuckDB:
		return New(cfg)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// OpenCheckpointStore returns the checkpoint store selected by
// cfg.Backend. The database backend shares the connection of store.
func OpenCheckpointStore(cfg config.CheckpointConfig, store Store) (Checkpointer, error) {
	switch cfg.Backend {
	case "", config.CheckpointFile:
		return NewFileCheckpointStore(cfg.Path)
	case config.CheckpointBadger:
		return NewBadgerCheckpointStore(cfg.Path)
	case config.CheckpointDatabase:
		switch s := store.(type) {
		case *DB:
			return s.CheckpointStore(), nil
		case *PostgresStore:
			return s.CheckpointStore(), nil
		default:
			return nil, fmt.Errorf("%w: %q requires a SQL event store", ErrUnsupportedCheckpointBackend, cfg.Backend)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCheckpointBackend, cfg.Backend)
	}
}

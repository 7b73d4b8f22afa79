// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/database/query"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

// PostgresStore is the login event store backed by PostgreSQL. It serves
// deployments where the auth service already writes events to a shared
// Postgres instance.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to cfg.PostgresDSN and initializes the schema.
func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("postgres DSN is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	if cfg.PostgresMaxConns > 0 {
		poolConfig.MaxConns = cfg.PostgresMaxConns
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "credguard"
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := s.createTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Postgres login event store opened")

	return s, nil
}

func (s *PostgresStore) createTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	for _, q := range loginEventsDDL("TIMESTAMPTZ", "id BIGSERIAL PRIMARY KEY") {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Ping verifies the pool can reach the server.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// InsertLoginEvent stores ev and sets ev.ID to the assigned id.
func (s *PostgresStore) InsertLoginEvent(ctx context.Context, ev *detection.LoginEvent) (err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("insert", time.Since(start), err) }()

	if err = validateEvent(ev); err != nil {
		return err
	}

	var id int64
	sqlText := query.Rebind(query.Dollar, insertEventSQL)
	if err = s.pool.QueryRow(ctx, sqlText, insertArgs(ev)...).Scan(&id); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	ev.ID = id
	return nil
}

// FetchEvents implements detection.EventStore.
func (s *PostgresStore) FetchEvents(ctx context.Context, q detection.EventQuery) (events []detection.LoginEvent, err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("fetch", time.Since(start), err) }()

	sqlText, args := buildFetchQuery(query.Dollar, q)
	rows, err := s.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query login events: %w", err)
	}
	defer rows.Close()

	events = []detection.LoginEvent{}
	for rows.Next() {
		ev, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan login event: %w", scanErr)
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate login events: %w", err)
	}
	return events, nil
}

// LatestEventTime implements detection.EventStore.
func (s *PostgresStore) LatestEventTime(ctx context.Context) (latest time.Time, found bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("latest", time.Since(start), err) }()

	var ts *time.Time
	if err = s.pool.QueryRow(ctx, latestEventSQL).Scan(&ts); err != nil {
		return time.Time{}, false, fmt.Errorf("query latest event time: %w", err)
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return ts.UTC(), true, nil
}

// CheckpointStore returns a detection.CheckpointStore persisted in the
// monitor_checkpoint table of this database.
func (s *PostgresStore) CheckpointStore() *TableCheckpointStore {
	return &TableCheckpointStore{
		read: func(ctx context.Context) (*time.Time, error) {
			var ts *time.Time
			err := s.pool.QueryRow(ctx, readCheckpointSQL).Scan(&ts)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return ts, err
		},
		write: func(ctx context.Context, t time.Time) error {
			_, err := s.pool.Exec(ctx, query.Rebind(query.Dollar, writeCheckpointSQL), t.UTC())
			return err
		},
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
database_schema.go - Database Schema Management

Tables:
  - login_events: one row per authentication attempt with the geo attributes
    resolved at ingestion time. Timestamps are stored as UTC.
  - monitor_checkpoint: single-row high-water mark of the continuous monitor
    (used when checkpoint.backend is "database").

Index Strategy:
  - "timestamp" for the monitor's global range scan
  - ("key", "timestamp") for tenant-scoped windows
  - (user_id, "timestamp") for per-user detection
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// loginEventsDDL is shared by both drivers. tsType and idDefault differ.
func loginEventsDDL(tsType, idColumn string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS login_events (
			%s,
			"key" TEXT NOT NULL,
			user_id TEXT NOT NULL,
			ip TEXT NOT NULL,
			device_fingerprint TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			"timestamp" %s NOT NULL,
			city TEXT,
			region TEXT,
			country TEXT,
			continent TEXT,
			postal_code TEXT,
			timezone TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			organization TEXT,
			asn INTEGER,
			iso_country_code TEXT
		)`, idColumn, tsType),
		`CREATE INDEX IF NOT EXISTS idx_login_events_timestamp ON login_events("timestamp")`,
		`CREATE INDEX IF NOT EXISTS idx_login_events_key_timestamp ON login_events("key", "timestamp")`,
		`CREATE INDEX IF NOT EXISTS idx_login_events_user_timestamp ON login_events(user_id, "timestamp")`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS monitor_checkpoint (
			id INTEGER PRIMARY KEY,
			checkpoint %s NOT NULL
		)`, tsType),
	}
}

// createTables creates the DuckDB tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := append([]string{
		`CREATE SEQUENCE IF NOT EXISTS login_events_id_seq START 1`,
	}, loginEventsDDL("TIMESTAMP", "id BIGINT PRIMARY KEY DEFAULT nextval('login_events_id_seq')")...)

	for _, q := range queries {
		if _, err := db.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

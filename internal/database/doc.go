// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package database provides persistence for login events and the monitor
// checkpoint.
//
// # Event Stores
//
// Two interchangeable stores implement detection.EventStore plus insertion:
//
//   - DB: embedded DuckDB (default). Use ":memory:" for tests.
//   - PostgresStore: PostgreSQL through a pgx connection pool.
//
// Both share one schema (login_events, monitor_checkpoint) and one query
// builder (package query); only the placeholder dialect differs. Events are
// returned ordered by timestamp, ties in insertion order.
//
// # Checkpoint Stores
//
// The monitor's high-water mark can live in a plain file (atomic rename), in
// an embedded BadgerDB, or in the monitor_checkpoint table of the event
// database. OpenCheckpointStore selects one from configuration.
//
// # Thread Safety
//
// All stores are safe for concurrent use.
package database

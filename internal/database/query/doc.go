// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package query provides SQL query building utilities for the database package.
//
// The login event store runs on DuckDB (through database/sql) or PostgreSQL
// (through pgx). Both accept the same SQL text apart from the placeholder
// style, so queries are written once with "?" markers and rebound per
// dialect:
//
//	wb := query.NewWhereBuilder(query.Question)
//	wb.AddTimeRange(`"timestamp"`, start, end, true)
//	wb.AddEquals(`"key"`, "tenant-a")
//	whereClause, args := wb.Build()
//	// "timestamp" >= ? AND "timestamp" <= ? AND "key" = ?
//
// # Thread Safety
//
// WhereBuilder is not safe for concurrent use. Create one per query.
package query

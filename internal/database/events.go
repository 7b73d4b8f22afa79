// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/credguard/internal/database/query"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/metrics"
)

const eventColumns = `id, "key", user_id, ip, device_fingerprint, success, "timestamp",
	city, region, country, continent, postal_code, timezone,
	latitude, longitude, organization, asn, iso_country_code`

const insertEventSQL = `INSERT INTO login_events (
	"key", user_id, ip, device_fingerprint, success, "timestamp",
	city, region, country, continent, postal_code, timezone,
	latitude, longitude, organization, asn, iso_country_code
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

const latestEventSQL = `SELECT max("timestamp") FROM login_events`

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// buildFetchQuery renders an EventQuery for dialect. Results are ordered by
// timestamp with ties broken by insertion id.
func buildFetchQuery(dialect query.Dialect, q detection.EventQuery) (string, []interface{}) {
	wb := query.NewWhereBuilder(dialect)
	wb.AddTimeRange(`"timestamp"`, q.Start, q.End, q.StartInclusive)
	if !q.AllTenants {
		wb.AddEquals(`"key"`, q.TenantKey)
	}
	where, args := wb.BuildWithPrefix()
	return fmt.Sprintf(`SELECT %s FROM login_events %s ORDER BY "timestamp" ASC, id ASC`, eventColumns, where), args
}

// insertArgs flattens an event into insert arguments. Absent geo
// attributes are passed as untyped nil so both drivers write NULL.
func insertArgs(ev *detection.LoginEvent) []interface{} {
	return []interface{}{
		ev.TenantKey, ev.UserID, ev.IP, ev.DeviceFingerprint, ev.Success, ev.Timestamp.UTC(),
		nullable(ev.City), nullable(ev.Region), nullable(ev.Country), nullable(ev.Continent),
		nullable(ev.PostalCode), nullable(ev.Timezone),
		nullable(ev.Latitude), nullable(ev.Longitude),
		nullable(ev.Organization), nullable(ev.ASN), nullable(ev.ISOCountryCode),
	}
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func scanEvent(r rowScanner) (detection.LoginEvent, error) {
	var ev detection.LoginEvent
	err := r.Scan(
		&ev.ID, &ev.TenantKey, &ev.UserID, &ev.IP, &ev.DeviceFingerprint, &ev.Success, &ev.Timestamp,
		&ev.City, &ev.Region, &ev.Country, &ev.Continent, &ev.PostalCode, &ev.Timezone,
		&ev.Latitude, &ev.Longitude, &ev.Organization, &ev.ASN, &ev.ISOCountryCode,
	)
	if err != nil {
		return ev, err
	}
	ev.Timestamp = ev.Timestamp.UTC()
	return ev, nil
}

func validateEvent(ev *detection.LoginEvent) error {
	if ev.TenantKey == "" {
		return detection.ErrNoTenantKey
	}
	if ev.Timestamp.IsZero() {
		return fmt.Errorf("login event for %q has no timestamp", ev.UserID)
	}
	return nil
}

// InsertLoginEvent stores ev and sets ev.ID to the assigned id.
func (db *DB) InsertLoginEvent(ctx context.Context, ev *detection.LoginEvent) (err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("insert", time.Since(start), err) }()

	if err = validateEvent(ev); err != nil {
		return err
	}

	var id int64
	if err = db.conn.QueryRowContext(ctx, insertEventSQL, insertArgs(ev)...).Scan(&id); err != nil {
		return fmt.Errorf("insert login event: %w", err)
	}
	ev.ID = id
	return nil
}

// FetchEvents implements detection.EventStore.
func (db *DB) FetchEvents(ctx context.Context, q detection.EventQuery) (events []detection.LoginEvent, err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("fetch", time.Since(start), err) }()

	sqlText, args := buildFetchQuery(query.Question, q)
	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query login events: %w", err)
	}
	defer closeWithLog(rows, nil, "login event rows")

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
func (db *DB) LatestEventTime(ctx context.Context) (latest time.Time, found bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordEventStoreQuery("latest", time.Since(start), err) }()

	var ts sql.NullTime
	if err = db.conn.QueryRowContext(ctx, latestEventSQL).Scan(&ts); err != nil {
		return time.Time{}, false, fmt.Errorf("query latest event time: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return ts.Time.UTC(), true, nil
}

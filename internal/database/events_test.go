// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/credguard/internal/database/query"
	"github.com/tomtom215/credguard/internal/detection"
)

func TestInsertLoginEvent_AssignsIDsAndRoundTripsGeo(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	lat, lon, asn := 28.6139, 77.2090, 9829
	ev := loginEvent("tenant-a", "alice", "203.0.113.7", true, 0)
	ev.City = strPtr("Delhi")
	ev.Country = strPtr("India")
	ev.ISOCountryCode = strPtr("IN")
	ev.Latitude = &lat
	ev.Longitude = &lon
	ev.ASN = &asn

	plain := loginEvent("tenant-a", "bob", "198.51.100.1", false, time.Second)
	insertAll(t, db, ev, plain)

	if ev.ID == 0 || plain.ID <= ev.ID {
		t.Fatalf("ids not assigned in order: %d, %d", ev.ID, plain.ID)
	}

	got, err := db.FetchEvents(ctx, detection.EventQuery{
		TenantKey:      "tenant-a",
		Start:          baseTime,
		End:            baseTime.Add(time.Minute),
		StartInclusive: true,
	})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchEvents() returned %d events, want 2", len(got))
	}

	first := got[0]
	if first.City == nil || *first.City != "Delhi" {
		t.Errorf("City = %v, want Delhi", first.City)
	}
	if first.ASN == nil || *first.ASN != asn {
		t.Errorf("ASN = %v, want %d", first.ASN, asn)
	}
	if !first.HasCoordinates() || *first.Latitude != lat {
		t.Errorf("coordinates not preserved: %v, %v", first.Latitude, first.Longitude)
	}
	if !first.Timestamp.Equal(baseTime) || first.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want %v in UTC", first.Timestamp, baseTime)
	}

	second := got[1]
	if second.City != nil || second.Latitude != nil || second.ASN != nil {
		t.Errorf("absent geo attributes should stay nil, got %+v", second.GeoAttributes)
	}
	if second.Success {
		t.Error("second event should be a failure")
	}
}

func TestInsertLoginEvent_Validation(t *testing.T) {
	db := setupTestDB(t)

	noTenant := loginEvent("", "alice", "203.0.113.7", true, 0)
	if err := db.InsertLoginEvent(context.Background(), noTenant); !errors.Is(err, detection.ErrNoTenantKey) {
		t.Errorf("missing tenant error = %v, want ErrNoTenantKey", err)
	}

	noTime := loginEvent("tenant-a", "alice", "203.0.113.7", true, 0)
	noTime.Timestamp = time.Time{}
	if err := db.InsertLoginEvent(context.Background(), noTime); err == nil {
		t.Error("expected error for zero timestamp")
	}
}

func TestFetchEvents_RangeAndScope(t *testing.T) {
	db := setupTestDB(t)

	insertAll(t, db,
		loginEvent("tenant-a", "alice", "203.0.113.1", false, 0),
		loginEvent("tenant-b", "alice", "203.0.113.2", false, 0),
		loginEvent("tenant-a", "bob", "203.0.113.3", true, time.Minute),
		loginEvent("tenant-a", "carol", "203.0.113.4", true, 2*time.Minute),
	)

	tests := []struct {
		name  string
		query detection.EventQuery
		want  []string
	}{
		{
			name: "exclusive start drops boundary",
			query: detection.EventQuery{
				AllTenants: true,
				Start:      baseTime,
				End:        baseTime.Add(2 * time.Minute),
			},
			want: []string{"bob", "carol"},
		},
		{
			name: "inclusive start keeps boundary in insertion order",
			query: detection.EventQuery{
				AllTenants:     true,
				Start:          baseTime,
				End:            baseTime.Add(time.Minute),
				StartInclusive: true,
			},
			want: []string{"alice@tenant-a", "alice@tenant-b", "bob"},
		},
		{
			name: "tenant scoped",
			query: detection.EventQuery{
				TenantKey:      "tenant-b",
				Start:          baseTime,
				End:            baseTime.Add(time.Hour),
				StartInclusive: true,
			},
			want: []string{"alice@tenant-b"},
		},
		{
			name: "empty range",
			query: detection.EventQuery{
				AllTenants: true,
				Start:      baseTime.Add(time.Hour),
				End:        baseTime.Add(2 * time.Hour),
			},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.FetchEvents(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("FetchEvents() error = %v", err)
			}
			if got == nil {
				t.Fatal("FetchEvents() returned nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i, ev := range got {
				label := ev.UserID
				if strings.Contains(tt.want[i], "@") {
					label = ev.UserID + "@" + ev.TenantKey
				}
				if label != tt.want[i] {
					t.Errorf("event %d = %s, want %s", i, label, tt.want[i])
				}
			}
		})
	}
}

func TestLatestEventTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, found, err := db.LatestEventTime(ctx); err != nil || found {
		t.Fatalf("empty store LatestEventTime() = found %v, err %v", found, err)
	}

	insertAll(t, db,
		loginEvent("tenant-a", "alice", "203.0.113.1", true, 3*time.Minute),
		loginEvent("tenant-b", "bob", "203.0.113.2", true, time.Minute),
	)

	latest, found, err := db.LatestEventTime(ctx)
	if err != nil || !found {
		t.Fatalf("LatestEventTime() = found %v, err %v", found, err)
	}
	if want := baseTime.Add(3 * time.Minute); !latest.Equal(want) {
		t.Errorf("LatestEventTime() = %v, want %v", latest, want)
	}
}

func TestBuildFetchQuery(t *testing.T) {
	q := detection.EventQuery{TenantKey: "tenant-a", Start: baseTime, End: baseTime.Add(time.Minute)}

	sqlText, args := buildFetchQuery(query.Dollar, q)
	if !strings.Contains(sqlText, `"timestamp" > $1 AND "timestamp" <= $2 AND "key" = $3`) {
		t.Errorf("unexpected where clause in %s", sqlText)
	}
	if !strings.HasSuffix(sqlText, `ORDER BY "timestamp" ASC, id ASC`) {
		t.Errorf("unexpected ordering in %s", sqlText)
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3", args)
	}

	q.AllTenants = true
	_, args = buildFetchQuery(query.Question, q)
	if len(args) != 2 {
		t.Errorf("all-tenant query should not bind a key, args = %v", args)
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package query

import (
	"testing"
	"time"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder(Question)

	if !wb.IsEmpty() {
		t.Error("Expected new builder to be empty")
	}

	clause, args := wb.Build()
	if clause != "1=1" {
		t.Errorf("Expected '1=1', got %q", clause)
	}
	if len(args) != 0 {
		t.Errorf("Expected no args, got %d", len(args))
	}
}

func TestWhereBuilder_TimeRange(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	start := time.Date(2026, 3, 14, 17, 30, 0, 0, loc)
	end := start.Add(5 * time.Minute)

	tests := []struct {
		name      string
		inclusive bool
		start     time.Time
		end       time.Time
		want      string
		wantArgs  int
	}{
		{"exclusive start", false, start, end, `"timestamp" > ? AND "timestamp" <= ?`, 2},
		{"inclusive start", true, start, end, `"timestamp" >= ? AND "timestamp" <= ?`, 2},
		{"no start", false, time.Time{}, end, `"timestamp" <= ?`, 1},
		{"no bounds", false, time.Time{}, time.Time{}, "1=1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder(Question)
			wb.AddTimeRange(`"timestamp"`, tt.start, tt.end, tt.inclusive)

			clause, args := wb.Build()
			if clause != tt.want {
				t.Errorf("clause = %q, want %q", clause, tt.want)
			}
			if len(args) != tt.wantArgs {
				t.Fatalf("args = %d, want %d", len(args), tt.wantArgs)
			}
			for _, a := range args {
				ts, ok := a.(time.Time)
				if !ok {
					t.Fatalf("arg %v is not a time", a)
				}
				if ts.Location() != time.UTC {
					t.Errorf("arg %v not normalized to UTC", ts)
				}
			}
		})
	}
}

func TestWhereBuilder_DollarDialect(t *testing.T) {
	end := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	wb := NewWhereBuilder(Dollar).
		AddTimeRange(`"timestamp"`, end.Add(-time.Minute), end, false).
		AddEquals(`"key"`, "tenant-a")

	clause, args := wb.BuildWithPrefix()
	want := `WHERE "timestamp" > $1 AND "timestamp" <= $2 AND "key" = $3`
	if clause != want {
		t.Errorf("clause = %q, want %q", clause, want)
	}
	if len(args) != 3 || args[2] != "tenant-a" {
		t.Errorf("unexpected args %v", args)
	}
	if wb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", wb.Count())
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"question untouched", Question, "a = ? AND b = ?", "a = ? AND b = ?"},
		{"dollar numbered", Dollar, "a = ? AND b = ?", "a = $1 AND b = $2"},
		{"quoted literal kept", Dollar, "a = '?' AND b = ?", "a = '?' AND b = $1"},
		{"no markers", Dollar, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.dialect, tt.in); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package query

import (
	"strconv"
	"strings"
	"time"
)

// Dialect selects the placeholder style of the target database.
type Dialect int

const (
	// Question emits "?" placeholders (DuckDB, database/sql drivers).
	Question Dialect = iota
	// Dollar emits "$1", "$2", ... placeholders (PostgreSQL via pgx).
	Dollar
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
// Clauses are written with "?" markers and rewritten for the dialect at
// Build time.
//
// Example usage:
//
//	wb := query.NewWhereBuilder(query.Dollar)
//	wb.AddTimeRange(`"timestamp"`, start, end, false)
//	wb.AddEquals(`"key"`, tenant)
//	whereClause, args := wb.Build()
//	// "timestamp" > $1 AND "timestamp" <= $2 AND "key" = $3
type WhereBuilder struct {
	dialect Dialect
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder(dialect Dialect) *WhereBuilder {
	return &WhereBuilder{
		dialect: dialect,
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments. The clause must
// contain one "?" per argument.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddEquals adds "column = ?".
func (wb *WhereBuilder) AddEquals(column string, value interface{}) *WhereBuilder {
	return wb.AddClause(column+" = ?", value)
}

// AddTimeRange adds a bounded time range on column. The upper bound is
// always inclusive; the lower bound is inclusive only when startInclusive
// is set. Zero times are skipped. Times are normalized to UTC.
func (wb *WhereBuilder) AddTimeRange(column string, start, end time.Time, startInclusive bool) *WhereBuilder {
	if !start.IsZero() {
		op := " > ?"
		if startInclusive {
			op = " >= ?"
		}
		wb.AddClause(column+op, start.UTC())
	}
	if !end.IsZero() {
		wb.AddClause(column+" <= ?", end.UTC())
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return Rebind(wb.dialect, strings.Join(wb.clauses, " AND ")), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// Rebind rewrites "?" markers in sql for dialect. Markers inside single
// quoted literals are left alone.
func Rebind(dialect Dialect, sql string) string {
	if dialect == Question || !strings.Contains(sql, "?") {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

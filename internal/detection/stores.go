// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"time"
)

// EventQuery selects login events by time range and tenant.
type EventQuery struct {
	// TenantKey scopes the query. Ignored when AllTenants is set.
	TenantKey  string
	AllTenants bool

	Start time.Time
	End   time.Time

	// StartInclusive selects [Start, End]; otherwise the range is (Start, End].
	StartInclusive bool
}

// EventStore is the read side of the login event store. Results are ordered
// by timestamp ascending, ties in insertion order.
type EventStore interface {
	FetchEvents(ctx context.Context, q EventQuery) ([]LoginEvent, error)

	// LatestEventTime returns the newest event timestamp, false when the
	// store is empty.
	LatestEventTime(ctx context.Context) (time.Time, bool, error)
}

// CheckpointStore persists the monitor's scan position. Write must be
// durable before it returns.
type CheckpointStore interface {
	Read(ctx context.Context) (time.Time, bool, error)
	Write(ctx context.Context, t time.Time) error
}

// DedupStore records the last alert time per AlertKey.
type DedupStore interface {
	LastAlert(ctx context.Context, key AlertKey) (time.Time, bool, error)
	RecordAlert(ctx context.Context, key AlertKey, at time.Time) error
}

// AlertPublisher delivers an alert to every live subscriber of a tenant
// group. Per-subscriber failures are the publisher's concern and are not
// reported to the caller.
type AlertPublisher interface {
	Publish(groupKey string, msg interface{}) error
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/credguard/internal/metrics"
)

// multiIPBonus is added to a user's total when they logged in from more than
// one IP in the window.
const multiIPBonus = 2

// Window is a closed UTC time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// zoneless layouts are interpreted as UTC.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone offset
// are taken as UTC. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidWindow, s)
}

// ParseWindow builds a detection window from optional start and end strings.
// Both or neither must be given; with neither the window is the span ending
// at now.
func ParseWindow(start, end string, now time.Time, span time.Duration) (Window, error) {
	if start == "" && end == "" {
		now = now.UTC()
		return Window{Start: now.Add(-span), End: now}, nil
	}
	if start == "" || end == "" {
		return Window{}, fmt.Errorf("%w: start_date and end_date must be provided together", ErrInvalidWindow)
	}

	s, err := ParseTimestamp(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return Window{}, err
	}
	if s.After(e) {
		return Window{}, fmt.Errorf("%w: start_date must be before end_date", ErrInvalidWindow)
	}
	return Window{Start: s, End: e}, nil
}

// UserResult holds one user's incidents.
type UserResult struct {
	UserID         string     `json:"user_id"`
	Incidents      []Incident `json:"incidents"`
	TotalRiskScore int        `json:"total_risk_score"`
}

// Result is the response of an on-demand detection run.
type Result struct {
	TenantKey   string       `json:"key"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Users       []UserResult `json:"users"`
}

// Detector runs the batch scorer over a tenant's events on request.
type Detector struct {
	scorer       *Scorer
	events       EventStore
	queryTimeout time.Duration
}

// NewDetector creates an on-demand detector.
func NewDetector(scorer *Scorer, events EventStore, queryTimeout time.Duration) *Detector {
	return &Detector{scorer: scorer, events: events, queryTimeout: queryTimeout}
}

// Detect scores every user of tenantKey over the window. Users are returned
// in ascending user ID order.
func (d *Detector) Detect(ctx context.Context, tenantKey string, w Window) (*Result, error) {
	if tenantKey == "" {
		return nil, ErrNoTenantKey
	}

	qctx := ctx
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}

	events, err := d.events.FetchEvents(qctx, EventQuery{
		TenantKey:      tenantKey,
		Start:          w.Start,
		End:            w.End,
		StartInclusive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}

	byUser := make(map[string][]LoginEvent)
	for _, e := range events {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}
	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	result := &Result{
		TenantKey:   tenantKey,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Users:       make([]UserResult, 0, len(userIDs)),
	}

	for _, id := range userIDs {
		userEvents := byUser[id]
		incidents := d.scorer.ScoreUser(ctx, userEvents)
		if incidents == nil {
			incidents = []Incident{}
		}

		total := 0
		for i := range incidents {
			total += incidents[i].RiskScore
			metrics.DetectionIncidents.WithLabelValues(string(incidents[i].Status)).Inc()
		}
		if len(distinct(userEvents, func(e LoginEvent) string { return e.IP })) > 1 {
			total += multiIPBonus
		}

		result.Users = append(result.Users, UserResult{
			UserID:         id,
			Incidents:      incidents,
			TotalRiskScore: total,
		})
	}

	return result, nil
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"sort"
	"sync"
	"time"
)

type fakeEventStore struct {
	mu       sync.Mutex
	events   []LoginEvent
	fetchErr error
	queries  []EventQuery
}

func (s *fakeEventStore) add(events ...LoginEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *fakeEventStore) FetchEvents(_ context.Context, q EventQuery) ([]LoginEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}

	var out []LoginEvent
	for _, e := range s.events {
		if !q.AllTenants && e.TenantKey != q.TenantKey {
			continue
		}
		if q.StartInclusive {
			if e.Timestamp.Before(q.Start) {
				continue
			}
		} else if !e.Timestamp.After(q.Start) {
			continue
		}
		if e.Timestamp.After(q.End) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *fakeEventStore) LatestEventTime(_ context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return time.Time{}, false, s.fetchErr
	}
	var latest time.Time
	for _, e := range s.events {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return latest, !latest.IsZero(), nil
}

type fakeCheckpointStore struct {
	mu       sync.Mutex
	value    time.Time
	set      bool
	writes   int
	writeErr error
}

func (c *fakeCheckpointStore) Read(_ context.Context) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set, nil
}

func (c *fakeCheckpointStore) Write(_ context.Context, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.value = t
	c.set = true
	c.writes++
	return nil
}

func (c *fakeCheckpointStore) get() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.set
}

type fakeDedupStore struct {
	mu      sync.Mutex
	last    map[AlertKey]time.Time
	readErr error
}

func newFakeDedupStore() *fakeDedupStore {
	return &fakeDedupStore{last: make(map[AlertKey]time.Time)}
}

func (d *fakeDedupStore) LastAlert(_ context.Context, key AlertKey) (time.Time, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return time.Time{}, false, d.readErr
	}
	t, ok := d.last[key]
	return t, ok, nil
}

func (d *fakeDedupStore) RecordAlert(_ context.Context, key AlertKey, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last[key] = at
	return nil
}

type publishedAlert struct {
	group string
	msg   *AlertMessage
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedAlert
}

func (p *fakePublisher) Publish(group string, msg interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	alert, _ := msg.(*AlertMessage)
	p.published = append(p.published, publishedAlert{group: group, msg: alert})
	return nil
}

func (p *fakePublisher) alerts() []publishedAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedAlert, len(p.published))
	copy(out, p.published)
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeNotifier struct {
	name    string
	enabled bool
	err     error

	mu       sync.Mutex
	received []*AlertMessage
}

func (n *fakeNotifier) Name() string  { return n.name }
func (n *fakeNotifier) Enabled() bool { return n.enabled }

func (n *fakeNotifier) Send(_ context.Context, alert *AlertMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, alert)
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.received)
}

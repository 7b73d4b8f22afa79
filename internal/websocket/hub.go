// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Config holds per-connection limits.
type Config struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 512,
	}
}

// Subscriber receives serialized alerts from the hub.
type Subscriber interface {
	ID() uint64
	// Send queues payload without blocking.
	Send(payload []byte) error
	// Close releases the subscriber's outbound resources.
	Close()
}

// Hub maps group keys to their live subscribers.
type Hub struct {
	cfg    Config
	groups map[string]map[Subscriber]struct{}
	mu     sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub(cfg Config) *Hub {
	def := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = def.WriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = def.PongWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	return &Hub{
		cfg:    cfg,
		groups: make(map[string]map[Subscriber]struct{}),
	}
}

// Config returns the connection limits clients should apply.
func (h *Hub) Config() Config {
	return h.cfg
}

// Subscribe adds s to group. Subscribing the same subscriber twice is a no-op.
func (h *Hub) Subscribe(s Subscriber, group string) {
	h.mu.Lock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[Subscriber]struct{})
		h.groups[group] = members
	}
	_, existed := members[s]
	members[s] = struct{}{}
	clients, groups := h.countsLocked()
	h.mu.Unlock()

	if existed {
		return
	}
	metrics.WSConnections.Set(float64(clients))
	metrics.WSGroups.Set(float64(groups))
	logging.Info().
		Str("group", logging.SanitizeLogValue(group)).
		Uint64("client_id", s.ID()).
		Int("total_clients", clients).
		Msg("websocket client subscribed")
}

// Unsubscribe removes s from group and closes it. The group entry is dropped
// with its last member.
func (h *Hub) Unsubscribe(s Subscriber, group string) {
	h.mu.Lock()
	members, ok := h.groups[group]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := members[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.groups, group)
	}
	clients, groups := h.countsLocked()
	h.mu.Unlock()

	s.Close()

	metrics.WSConnections.Set(float64(clients))
	metrics.WSGroups.Set(float64(groups))
	logging.Info().
		Str("group", logging.SanitizeLogValue(group)).
		Uint64("client_id", s.ID()).
		Int("total_clients", clients).
		Msg("websocket client unsubscribed")
}

// Publish serializes msg once and queues it to every member of group present
// at call time, in subscriber ID order. Per-member failures are logged and
// counted; they never stop delivery to other members. The returned error is
// only a serialization failure.
func (h *Hub) Publish(group string, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal websocket message: %w", err)
	}

	members := h.snapshot(group)
	for _, s := range members {
		if err := deliver(s, payload); err != nil {
			metrics.WSPublishFailures.Inc()
			logging.Warn().Err(err).
				Str("group", logging.SanitizeLogValue(group)).
				Uint64("client_id", s.ID()).
				Msg("websocket delivery failed")
		}
	}
	return nil
}

// deliver isolates a panicking subscriber from the publish loop.
func deliver(s Subscriber, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return s.Send(payload)
}

func (h *Hub) snapshot(group string) []Subscriber {
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.groups[group]))
	for s := range h.groups[group] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].ID() < members[j].ID()
	})
	return members
}

func (h *Hub) countsLocked() (clients, groups int) {
	for _, members := range h.groups {
		clients += len(members)
	}
	return clients, len(h.groups)
}

// GetClientCount returns the number of subscribed connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, _ := h.countsLocked()
	return clients
}

// GroupCount returns the number of groups with at least one member.
func (h *Hub) GroupCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups)
}

// GroupSize returns the number of members of group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// RunWithContext ties the hub's lifetime to ctx. On cancellation every
// subscriber is closed and removed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	<-ctx.Done()
	h.logGracefulShutdown(ctx)
	return ctx.Err()
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients empties the registry and closes every subscriber in ID
// order. It returns the number of subscribers closed.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	var all []Subscriber
	for _, members := range h.groups {
		for s := range members {
			all = append(all, s)
		}
	}
	h.groups = make(map[string]map[Subscriber]struct{})
	h.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].ID() < all[j].ID()
	})
	for _, s := range all {
		s.Close()
	}

	metrics.WSConnections.Set(0)
	metrics.WSGroups.Set(0)
	return len(all)
}

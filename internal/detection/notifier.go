// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

// Notifier delivers alerts to an external sink.
type Notifier interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, alert *AlertMessage) error
}

// FanoutConfig controls per-notifier delivery.
type FanoutConfig struct {
	// SendTimeout bounds a single Send call.
	SendTimeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens a
	// notifier's circuit breaker.
	FailureThreshold uint32
	// OpenTimeout is how long an open breaker rejects sends before probing.
	OpenTimeout time.Duration
	// QueueSize is the number of alerts buffered per notifier. Alerts
	// dispatched while a notifier's queue is full are dropped.
	QueueSize int
}

// DefaultFanoutConfig returns production defaults.
func DefaultFanoutConfig() FanoutConfig {
	return FanoutConfig{
		SendTimeout:      10 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		QueueSize:        256,
	}
}

type guardedNotifier struct {
	notifier Notifier
	breaker  *gobreaker.CircuitBreaker[interface{}]
	queue    chan *AlertMessage
}

// NotifierFanout hands each alert to every enabled notifier. Each notifier
// has its own bounded queue drained by a single worker, so a stalled sink
// holds at most QueueSize alerts and one goroutine. A notifier whose breaker
// is open is skipped until it recovers.
type NotifierFanout struct {
	cfg       FanoutConfig
	notifiers []*guardedNotifier

	mu     sync.RWMutex
	closed bool

	pending sync.WaitGroup
	workers sync.WaitGroup
}

// NewNotifierFanout creates a fan-out over notifiers and starts one worker
// per notifier. Close stops the workers.
func NewNotifierFanout(cfg FanoutConfig, notifiers ...Notifier) *NotifierFanout {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultFanoutConfig().QueueSize
	}

	f := &NotifierFanout{cfg: cfg}
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		settings := gobreaker.Settings{
			Name:    n.Name(),
			Timeout: cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("notifier", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Notifier circuit breaker state changed")
			},
		}
		g := &guardedNotifier{
			notifier: n,
			breaker:  gobreaker.NewCircuitBreaker[interface{}](settings),
			queue:    make(chan *AlertMessage, cfg.QueueSize),
		}
		f.notifiers = append(f.notifiers, g)

		f.workers.Add(1)
		go f.run(g)
	}
	return f
}

// Len returns the number of registered notifiers.
func (f *NotifierFanout) Len() int {
	return len(f.notifiers)
}

// Dispatch queues alert for every enabled notifier without blocking. A full
// queue drops the alert for that notifier only. Alerts dispatched after
// Close are dropped.
func (f *NotifierFanout) Dispatch(alert *AlertMessage) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	for _, g := range f.notifiers {
		if !g.notifier.Enabled() {
			continue
		}
		f.pending.Add(1)
		select {
		case g.queue <- alert:
		default:
			f.pending.Done()
			metrics.NotifierDropped.WithLabelValues(g.notifier.Name()).Inc()
			logging.Warn().
				Str("notifier", g.notifier.Name()).
				Str("alert_id", alert.AlertID).
				Int("queue_size", f.cfg.QueueSize).
				Msg("Notifier queue full, alert dropped")
		}
	}
}

func (f *NotifierFanout) run(g *guardedNotifier) {
	defer f.workers.Done()
	for alert := range g.queue {
		f.send(g, alert)
		f.pending.Done()
	}
}

func (f *NotifierFanout) send(g *guardedNotifier, alert *AlertMessage) {
	ctx := context.Background()
	if f.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.SendTimeout)
		defer cancel()
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.notifier.Send(ctx, alert)
	})
	if err != nil {
		metrics.NotifierFailures.WithLabelValues(g.notifier.Name()).Inc()
		logging.Warn().Err(err).
			Str("notifier", g.notifier.Name()).
			Str("alert_id", alert.AlertID).
			Msg("Alert notification failed")
	}
}

// Wait blocks until every queued alert has been sent.
func (f *NotifierFanout) Wait() {
	f.pending.Wait()
}

// Close stops accepting alerts, delivers what is already queued and stops
// the workers. It is safe to call more than once.
func (f *NotifierFanout) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	for _, g := range f.notifiers {
		close(g.queue)
	}
	f.mu.Unlock()

	f.workers.Wait()
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

// MonitorConfig controls the continuous monitor.
type MonitorConfig struct {
	Interval       time.Duration
	Cooldown       time.Duration
	AlertThreshold int
	// Lookback is the width of the per-event analysis window.
	Lookback     time.Duration
	QueryTimeout time.Duration
}

// DefaultMonitorConfig returns the production monitor settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:       5 * time.Second,
		Cooldown:       300 * time.Second,
		AlertThreshold: 5,
		Lookback:       5 * time.Minute,
		QueryTimeout:   10 * time.Second,
	}
}

// MonitorStatus is a snapshot of the monitor for health reporting.
type MonitorStatus struct {
	Running       bool      `json:"running"`
	LastCycle     time.Time `json:"last_cycle,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	Checkpoint    time.Time `json:"checkpoint,omitempty"`
	Cycles        int64     `json:"cycles"`
	FailedCycles  int64     `json:"failed_cycles"`
	AlertsSent    int64     `json:"alerts_sent"`
	AlertsSkipped int64     `json:"alerts_suppressed"`
}

// MonitorOption configures optional monitor collaborators.
type MonitorOption func(*Monitor)

// WithNotifiers hands every dispatched alert to the fan-out after the
// websocket publish.
func WithNotifiers(f *NotifierFanout) MonitorOption {
	return func(m *Monitor) { m.notifiers = f }
}

// WithAuditLogger replaces the default alert audit logger.
func WithAuditLogger(a *logging.AlertAuditLogger) MonitorOption {
	return func(m *Monitor) { m.audit = a }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// Monitor incrementally scores new login events and dispatches alerts.
//
// A cycle reads the checkpoint, fetches events newer than it, scores each
// event against its lookback window, applies the per-key cooldown, publishes
// alerts and finally advances the checkpoint. Any store failure aborts the
// cycle before the checkpoint write so the same range is retried on the next
// tick. Only one cycle runs at a time.
type Monitor struct {
	cfg         MonitorConfig
	scorer      *Scorer
	events      EventStore
	checkpoints CheckpointStore
	dedup       DedupStore
	publisher   AlertPublisher
	notifiers   *NotifierFanout
	audit       *logging.AlertAuditLogger
	now         func() time.Time

	cycleMu sync.Mutex

	mu     sync.RWMutex
	status MonitorStatus
}

// NewMonitor creates a monitor. The dedup store is owned by the monitor and
// must not be shared with another instance.
func NewMonitor(cfg MonitorConfig, scorer *Scorer, events EventStore, checkpoints CheckpointStore,
	dedup DedupStore, publisher AlertPublisher, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		cfg:         cfg,
		scorer:      scorer,
		events:      events,
		checkpoints: checkpoints,
		dedup:       dedup,
		publisher:   publisher,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.audit == nil {
		m.audit = logging.NewAlertAuditLogger()
	}
	return m
}

// RunWithContext runs a cycle immediately and then one per interval until
// ctx is canceled. Cycle failures are logged and never stop the loop.
func (m *Monitor) RunWithContext(ctx context.Context) error {
	m.setRunning(true)
	defer m.setRunning(false)

	logging.Info().Dur("interval", m.cfg.Interval).Msg("Starting credential stuffing monitor")

	m.runLoggedCycle(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Credential stuffing monitor stopped")
			return ctx.Err()
		case <-ticker.C:
			m.runLoggedCycle(ctx)
		}
	}
}

func (m *Monitor) runLoggedCycle(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	if err := m.RunCycle(ctx); err != nil && ctx.Err() == nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Monitor cycle failed, checkpoint not advanced")
	}
}

// RunCycle executes one poll cycle. It returns the error that aborted the
// cycle, in which case the checkpoint is left unchanged.
func (m *Monitor) RunCycle(ctx context.Context) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	start := m.now().UTC()
	scanned, checkpoint, err := m.cycle(ctx, start)
	elapsed := m.now().Sub(start)

	metrics.RecordMonitorCycle(elapsed, scanned, err)

	m.mu.Lock()
	m.status.LastCycle = start
	m.status.Cycles++
	if err != nil {
		m.status.FailedCycles++
		m.status.LastError = err.Error()
	} else {
		m.status.LastError = ""
		m.status.Checkpoint = checkpoint
	}
	m.mu.Unlock()

	if err == nil {
		metrics.MonitorCheckpointLag.Set(start.Sub(checkpoint).Seconds())
		logging.Ctx(ctx).Debug().
			Int("events", scanned).
			Time("checkpoint", checkpoint).
			Dur("duration", elapsed).
			Msg("Monitor cycle complete")
	}
	return err
}

func (m *Monitor) cycle(ctx context.Context, now time.Time) (int, time.Time, error) {
	last, found, err := m.readCheckpoint(ctx, now)
	if err != nil {
		return 0, time.Time{}, err
	}

	events, err := m.fetch(ctx, EventQuery{AllTenants: true, Start: last, End: now})
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("fetch new events: %w", err)
	}

	next := last
	for i := range events {
		if err := ctx.Err(); err != nil {
			return 0, time.Time{}, err
		}
		if err := m.processEvent(ctx, &events[i]); err != nil {
			return 0, time.Time{}, err
		}
		if events[i].Timestamp.After(next) {
			next = events[i].Timestamp
		}
	}

	if !found || next.After(last) {
		if err := ctx.Err(); err != nil {
			return 0, time.Time{}, err
		}
		if err := m.checkpoints.Write(ctx, next); err != nil {
			return 0, time.Time{}, fmt.Errorf("write checkpoint: %w", err)
		}
	}

	return len(events), next, nil
}

// readCheckpoint returns the stored checkpoint or, on first run, the latest
// event time, or now when the store is empty. The boolean reports whether a
// stored checkpoint existed.
func (m *Monitor) readCheckpoint(ctx context.Context, now time.Time) (time.Time, bool, error) {
	t, ok, err := m.checkpoints.Read(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	if ok {
		return t.UTC(), true, nil
	}

	qctx, cancel := m.queryContext(ctx)
	defer cancel()

	latest, ok, err := m.events.LatestEventTime(qctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest event time: %w", err)
	}
	if ok {
		logging.Ctx(ctx).Info().Time("checkpoint", latest).Msg("No checkpoint found, starting from latest event")
		return latest.UTC(), false, nil
	}

	logging.Ctx(ctx).Info().Time("checkpoint", now).Msg("No checkpoint found and store is empty, starting from now")
	return now, false, nil
}

func (m *Monitor) processEvent(ctx context.Context, e *LoginEvent) error {
	window, err := m.fetch(ctx, EventQuery{
		TenantKey:      e.TenantKey,
		Start:          e.Timestamp.Add(-m.cfg.Lookback),
		End:            e.Timestamp,
		StartInclusive: true,
	})
	if err != nil {
		return fmt.Errorf("fetch window for event %d: %w", e.ID, err)
	}

	score, triggered := m.scorer.Score(TripleScope{
		Window:            window,
		UserID:            e.UserID,
		IP:                e.IP,
		DeviceFingerprint: e.DeviceFingerprint,
	})
	if score < m.cfg.AlertThreshold {
		return nil
	}

	tenant := e.TenantKey
	if tenant == "" {
		tenant = DefaultTenantKey
	}
	key := AlertKey{UserID: e.UserID, IP: e.IP, TenantKey: tenant}

	now := m.now().UTC()
	last, seen, err := m.dedup.LastAlert(ctx, key)
	if err != nil {
		return fmt.Errorf("read alert dedup state: %w", err)
	}

	audit := &logging.AlertAuditEvent{
		TenantKey:         tenant,
		UserID:            e.UserID,
		IP:                e.IP,
		DeviceFingerprint: e.DeviceFingerprint,
		RiskScore:         score,
		EventTime:         e.Timestamp,
	}
	if seen {
		audit.LastAlert = last
	}

	if seen && now.Sub(last) <= m.cfg.Cooldown {
		audit.Decision = logging.DecisionSuppressed
		m.audit.Log(audit)
		metrics.AlertsSuppressed.WithLabelValues("cooldown").Inc()
		m.mu.Lock()
		m.status.AlertsSkipped++
		m.mu.Unlock()
		return nil
	}

	msg := &AlertMessage{
		AlertID:           uuid.New().String(),
		Status:            StatusAlert,
		Category:          AlertCategory,
		RiskScore:         score,
		UserID:            e.UserID,
		DeviceFingerprint: e.DeviceFingerprint,
		IP:                e.IP,
		TenantKey:         tenant,
		Timestamp:         e.Timestamp.UTC().Format(time.RFC3339),
		TriggeredRules:    triggered,
	}

	if err := m.publisher.Publish(tenant, msg); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("tenant", logging.SanitizeLogValue(tenant)).Msg("Alert publish failed")
	}
	if m.notifiers != nil {
		m.notifiers.Dispatch(msg)
	}

	if err := m.dedup.RecordAlert(ctx, key, now); err != nil {
		return fmt.Errorf("record alert dedup state: %w", err)
	}

	audit.Decision = logging.DecisionDispatched
	m.audit.Log(audit)
	metrics.AlertsDispatched.Inc()
	m.mu.Lock()
	m.status.AlertsSent++
	m.mu.Unlock()
	return nil
}

func (m *Monitor) fetch(ctx context.Context, q EventQuery) ([]LoginEvent, error) {
	qctx, cancel := m.queryContext(ctx)
	defer cancel()
	return m.events.FetchEvents(qctx, q)
}

func (m *Monitor) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.cfg.QueryTimeout)
}

func (m *Monitor) setRunning(running bool) {
	m.mu.Lock()
	m.status.Running = running
	m.mu.Unlock()
}

// Status returns a snapshot of the monitor state.
func (m *Monitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

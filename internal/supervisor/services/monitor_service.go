// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package services

import (
	"context"
)

// MonitorRunner is satisfied by *detection.Monitor.
type MonitorRunner interface {
	// RunWithContext polls for new login events until ctx is canceled.
	RunWithContext(ctx context.Context) error
}

// MonitorService runs the continuous credential stuffing monitor under
// supervision. The monitor never exits on a failed cycle, so a return
// before shutdown is a crash and suture restarts it. The checkpoint makes
// a restart resume where the last committed cycle ended.
//
// Example usage:
//
//	monitor := detection.NewMonitor(cfg, scorer, store, checkpoints, dedup, hub)
//	tree.AddDetectionService(services.NewMonitorService(monitor))
type MonitorService struct {
	monitor MonitorRunner
	name    string
}

// NewMonitorService creates a new monitor service wrapper.
func NewMonitorService(monitor MonitorRunner) *MonitorService {
	return &MonitorService{
		monitor: monitor,
		name:    "monitor",
	}
}

// Serve implements suture.Service.
func (m *MonitorService) Serve(ctx context.Context) error {
	return m.monitor.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (m *MonitorService) String() string {
	return m.name
}

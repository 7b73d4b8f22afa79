// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMonitorCycle(t *testing.T) {
	successBefore := testutil.ToFloat64(MonitorCycles.WithLabelValues("success"))
	errorBefore := testutil.ToFloat64(MonitorCycleErrors)
	scannedBefore := testutil.ToFloat64(MonitorEventsScanned)

	RecordMonitorCycle(20*time.Millisecond, 7, nil)
	RecordMonitorCycle(5*time.Millisecond, 3, errors.New("store unreachable"))

	if got := testutil.ToFloat64(MonitorCycles.WithLabelValues("success")) - successBefore; got != 1 {
		t.Errorf("success cycles delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(MonitorCycleErrors) - errorBefore; got != 1 {
		t.Errorf("error cycles delta = %v, want 1", got)
	}
	// Events of a failed cycle are re-scanned next time and are not counted
	if got := testutil.ToFloat64(MonitorEventsScanned) - scannedBefore; got != 7 {
		t.Errorf("events scanned delta = %v, want 7", got)
	}
}

func TestRecordEventStoreQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		err       error
		wantErrs  float64
	}{
		{"successful fetch", "fetch_events", nil, 0},
		{"failed fetch", "fetch_events_failed", errors.New("connection refused"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(EventStoreQueryErrors.WithLabelValues(tt.operation))
			RecordEventStoreQuery(tt.operation, time.Millisecond, tt.err)
			after := testutil.ToFloat64(EventStoreQueryErrors.WithLabelValues(tt.operation))
			if after-before != tt.wantErrs {
				t.Errorf("error delta = %v, want %v", after-before, tt.wantErrs)
			}
		})
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/detect-cred-stuff", "200"))
	RecordAPIRequest("POST", "/detect-cred-stuff", "200", 25*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/detect-cred-stuff", "200"))

	if after-before != 1 {
		t.Errorf("request delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)

	if got := testutil.ToFloat64(APIActiveRequests) - before; got != 1 {
		t.Errorf("active requests delta = %v, want 1", got)
	}
	TrackActiveRequest(false)
}

func TestRecordLoginEventIngested(t *testing.T) {
	before := testutil.ToFloat64(LoginEventsIngested.WithLabelValues("false"))
	RecordLoginEventIngested(false)
	if got := testutil.ToFloat64(LoginEventsIngested.WithLabelValues("false")) - before; got != 1 {
		t.Errorf("ingested delta = %v, want 1", got)
	}
}

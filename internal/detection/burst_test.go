// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"testing"
	"time"
)

func successesAt(offsets ...time.Duration) []LoginEvent {
	events := make([]LoginEvent, 0, len(offsets))
	for i, off := range offsets {
		events = append(events, testEvent(int64(i+1), "u1", "1.1.1.1", "d1", true, off))
	}
	return events
}

func TestDetectBurst(t *testing.T) {
	window := 300 * time.Second
	s := time.Second

	tests := []struct {
		name      string
		events    []LoginEvent
		threshold int
		want      bool
	}{
		{"five within window", successesAt(0, 60*s, 120*s, 180*s, 240*s), 5, true},
		{"five spanning exactly the window", successesAt(0, 75*s, 150*s, 225*s, 300*s), 5, true},
		{"five spanning 301 seconds", successesAt(0, 75*s, 150*s, 225*s, 301*s), 5, false},
		{"four within window", successesAt(0, 1*s, 2*s, 3*s), 5, false},
		{"late start reaches threshold", successesAt(0, 400*s, 401*s, 402*s, 403*s, 404*s), 5, true},
		{"unsorted input", successesAt(240*s, 0, 180*s, 60*s, 120*s), 5, true},
		{"empty", nil, 5, false},
		{"zero threshold", successesAt(0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectBurst(tt.events, window, tt.threshold); got != tt.want {
				t.Errorf("detectBurst() = %v, want %v", got, tt.want)
			}
		})
	}
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"sort"
	"time"
)

// detectBurst reports whether threshold or more successful logins start
// within window of some success. Counting walks consecutive indexes from each
// start and stops at the first success outside the window; the first start
// that reaches threshold wins.
func detectBurst(successes []LoginEvent, window time.Duration, threshold int) bool {
	if threshold <= 0 || len(successes) < threshold {
		return false
	}

	sorted := make([]LoginEvent, len(successes))
	copy(sorted, successes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	for i := range sorted {
		limit := sorted[i].Timestamp.Add(window)
		count := 1
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Timestamp.After(limit) {
				break
			}
			count++
		}
		if count >= threshold {
			return true
		}
	}

	return false
}

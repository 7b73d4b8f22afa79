// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import "sort"

// Rule names reported in Incident.TriggeredRules and AlertMessage.TriggeredRules.
const (
	RuleFailedAttempts   = "failed_attempts"
	RuleEventVolume      = "event_volume"
	RuleDeviceReuse      = "device_reuse"
	RuleIPVelocity       = "ip_velocity"
	RuleImpossibleTravel = "impossible_travel"
	RuleSuccessBurst     = "success_burst"
)

// alertScoreThreshold is the incident score at which status becomes ALERT.
const alertScoreThreshold = 2

// Signals are the observations a Scope extracts from its events. The RuleSet
// turns them into a score without looking at events again.
type Signals struct {
	FailedAttempts    int
	Events            int
	DeviceReuseUsers  int
	DistinctIPs       int
	LocationAnomalies int
	Burst             bool
}

// Rule is one independently triggered contribution to the risk score.
type Rule struct {
	Name    string
	Points  int
	Matches func(Signals) bool
}

// RuleSet is an ordered list of rules. Scores are the sum of matching rules.
type RuleSet []Rule

// DefaultRuleSet returns the standard credential-stuffing rule table.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		{Name: RuleFailedAttempts, Points: 30, Matches: func(s Signals) bool { return s.FailedAttempts > 5 }},
		{Name: RuleEventVolume, Points: 20, Matches: func(s Signals) bool { return s.Events > 5 }},
		{Name: RuleDeviceReuse, Points: 10, Matches: func(s Signals) bool { return s.DeviceReuseUsers > 3 }},
		{Name: RuleIPVelocity, Points: 20, Matches: func(s Signals) bool { return s.DistinctIPs > 1 }},
		{Name: RuleImpossibleTravel, Points: 10, Matches: func(s Signals) bool { return s.LocationAnomalies > 0 }},
		{Name: RuleSuccessBurst, Points: 10, Matches: func(s Signals) bool { return s.Burst }},
	}
}

// Evaluate returns the summed score and the names of the rules that matched.
func (rs RuleSet) Evaluate(s Signals) (int, []string) {
	score := 0
	var triggered []string
	for _, r := range rs {
		if r.Matches(s) {
			score += r.Points
			triggered = append(triggered, r.Name)
		}
	}
	return score, triggered
}

// StatusForScore maps a risk score to an incident status.
func StatusForScore(score int) Status {
	if score >= alertScoreThreshold {
		return StatusAlert
	}
	return StatusOK
}

// Scope gathers rule signals from a correlation unit.
type Scope interface {
	Signals(cfg Config) Signals
}

// PartitionScope is one (ip, device fingerprint) partition of a single
// user's events. Anomalies are computed at user level by the caller.
type PartitionScope struct {
	Events    []LoginEvent
	Anomalies []LocationAnomaly
}

// Signals implements Scope.
func (p PartitionScope) Signals(cfg Config) Signals {
	failed, successes := splitBySuccess(p.Events)
	return Signals{
		FailedAttempts:    len(failed),
		Events:            len(p.Events),
		DeviceReuseUsers:  len(distinct(p.Events, func(e LoginEvent) string { return e.UserID })),
		DistinctIPs:       len(distinct(p.Events, func(e LoginEvent) string { return e.IP })),
		LocationAnomalies: len(p.Anomalies),
		Burst:             detectBurst(successes, cfg.TimeWindow, cfg.SuccessThreshold),
	}
}

// TripleScope scores a single (user, ip, device fingerprint) triple against
// the events of a narrow window around one login.
//
// The partition is the window's events for the triple. Device reuse counts
// distinct users seen with the fingerprint anywhere in the window and the IP
// count is the number of distinct IPs the user logged in from in the window.
// Impossible travel is evaluated over the user's window events.
type TripleScope struct {
	Window            []LoginEvent
	UserID            string
	IP                string
	DeviceFingerprint string
}

// Signals implements Scope.
func (t TripleScope) Signals(cfg Config) Signals {
	var partition, userEvents, deviceEvents []LoginEvent
	for _, e := range t.Window {
		if e.UserID == t.UserID {
			userEvents = append(userEvents, e)
			if e.IP == t.IP && e.DeviceFingerprint == t.DeviceFingerprint {
				partition = append(partition, e)
			}
		}
		if e.DeviceFingerprint == t.DeviceFingerprint {
			deviceEvents = append(deviceEvents, e)
		}
	}

	failed, successes := splitBySuccess(partition)
	return Signals{
		FailedAttempts:    len(failed),
		Events:            len(partition),
		DeviceReuseUsers:  len(distinct(deviceEvents, func(e LoginEvent) string { return e.UserID })),
		DistinctIPs:       len(distinct(userEvents, func(e LoginEvent) string { return e.IP })),
		LocationAnomalies: len(detectImpossibleTravel(sortedByTime(userEvents), cfg)),
		Burst:             detectBurst(successes, cfg.TimeWindow, cfg.SuccessThreshold),
	}
}

func splitBySuccess(events []LoginEvent) (failed, successes []LoginEvent) {
	for _, e := range events {
		if e.Success {
			successes = append(successes, e)
		} else {
			failed = append(failed, e)
		}
	}
	return failed, successes
}

// distinct returns the sorted set of values produced by key.
func distinct(events []LoginEvent, key func(LoginEvent) string) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, e := range events {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortedByTime returns a stably sorted copy; ties keep store order.
func sortedByTime(events []LoginEvent) []LoginEvent {
	sorted := make([]LoginEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

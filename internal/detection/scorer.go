// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/credguard/internal/logging"
)

// Scorer applies the RuleSet to login events. It holds no mutable state and
// is safe for concurrent use.
type Scorer struct {
	cfg              Config
	rules            RuleSet
	narrator         Narrator
	narrativeTimeout time.Duration
}

// NewScorer creates a scorer. narrator may be nil, in which case incidents
// carry no narrative.
func NewScorer(cfg Config, narrator Narrator, narrativeTimeout time.Duration) *Scorer {
	return &Scorer{
		cfg:              cfg,
		rules:            DefaultRuleSet(),
		narrator:         narrator,
		narrativeTimeout: narrativeTimeout,
	}
}

// Config returns the scoring thresholds.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score evaluates the rule set over a scope.
func (s *Scorer) Score(scope Scope) (int, []string) {
	return s.rules.Evaluate(scope.Signals(s.cfg))
}

type partitionKey struct {
	ip, device string
}

// ScoreUser scores all events of one (tenant, user) pair and returns one
// incident per (ip, device fingerprint) partition, in order of each
// partition's earliest event. Partitions that are OK with a zero score are
// omitted.
func (s *Scorer) ScoreUser(ctx context.Context, events []LoginEvent) []Incident {
	if len(events) == 0 {
		return nil
	}

	sorted := sortedByTime(events)
	anomalies := detectImpossibleTravel(sorted, s.cfg)

	var order []partitionKey
	partitions := make(map[partitionKey][]LoginEvent)
	for _, e := range sorted {
		k := partitionKey{ip: e.IP, device: e.DeviceFingerprint}
		if _, ok := partitions[k]; !ok {
			order = append(order, k)
		}
		partitions[k] = append(partitions[k], e)
	}

	incidents := make([]Incident, 0, len(order))
	for _, k := range order {
		partition := partitions[k]
		scope := PartitionScope{Events: partition, Anomalies: anomalies}
		score, triggered := s.Score(scope)
		status := StatusForScore(score)
		if status == StatusOK && score == 0 {
			continue
		}

		failed, successes := splitBySuccess(partition)
		incident := Incident{
			Status:            status,
			RiskScore:         score,
			IPs:               distinct(partition, func(e LoginEvent) string { return e.IP }),
			DeviceFingerprint: k.device,
			UserID:            partition[0].UserID,
			EventTimestamp:    partition[0].Timestamp,
			TriggeredRules:    triggered,
			Evidence: Evidence{
				FailedAttempts:     nonNil(failed),
				SuccessfulAttempts: nonNil(successes),
				IPVelocity:         partition,
				DeviceReuse:        partition,
				LocationAnomalies:  nonNilAnomalies(anomalies),
			},
		}
		s.attachNarrative(ctx, &incident)
		incidents = append(incidents, incident)
	}

	return incidents
}

// attachNarrative runs the narrator under a bounded timeout. Any failure,
// including a panic inside the narrator, leaves the narrative fields empty
// and records the reason on the incident.
func (s *Scorer) attachNarrative(ctx context.Context, incident *Incident) {
	if s.narrator == nil {
		return
	}

	if s.narrativeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.narrativeTimeout)
		defer cancel()
	}

	narrative, err := s.generate(ctx, *incident)
	if err != nil {
		incident.Narrative = ""
		incident.Recommendation = ""
		incident.LocalizationTags = nil
		incident.NarrativeError = err.Error()
		logging.Ctx(ctx).Warn().Err(err).
			Str("user_id", logging.SanitizeUserID(incident.UserID)).
			Msg("narrative generation failed")
		return
	}

	incident.Narrative = narrative.Narrative
	incident.Recommendation = narrative.Recommendation
	incident.LocalizationTags = narrative.LocalizationTags
}

// generate runs the narrator on its own goroutine so a narrator that ignores
// cancellation cannot hold the caller past the deadline.
func (s *Scorer) generate(ctx context.Context, incident Incident) (Narrative, error) {
	type result struct {
		n   Narrative
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("narrator panicked: %v", r)}
			}
		}()
		n, err := s.narrator.Generate(ctx, incident)
		done <- result{n: n, err: err}
	}()

	select {
	case r := <-done:
		return r.n, r.err
	case <-ctx.Done():
		return Narrative{}, fmt.Errorf("narrative generation: %w", ctx.Err())
	}
}

func nonNil(events []LoginEvent) []LoginEvent {
	if events == nil {
		return []LoginEvent{}
	}
	return events
}

func nonNilAnomalies(a []LocationAnomaly) []LocationAnomaly {
	if a == nil {
		return []LocationAnomaly{}
	}
	return a
}

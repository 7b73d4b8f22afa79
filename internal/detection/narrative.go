// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Narrative is the human-readable summary attached to an incident.
type Narrative struct {
	Narrative        string
	Recommendation   string
	LocalizationTags []string
}

// Narrator turns a scored incident into narrative text. Implementations may
// fail; the scorer degrades the incident instead of dropping it.
type Narrator interface {
	Generate(ctx context.Context, incident Incident) (Narrative, error)
}

// Recommendation thresholds.
const (
	blockScore   = 70
	monitorScore = 40
)

// TemplateNarrator is the deterministic built-in Narrator.
type TemplateNarrator struct {
	homeCountries map[string]struct{}
}

// NewTemplateNarrator creates a narrator that treats logins from any of
// homeCountries (case-insensitive) as the user's usual region.
func NewTemplateNarrator(homeCountries []string) *TemplateNarrator {
	home := make(map[string]struct{}, len(homeCountries))
	for _, c := range homeCountries {
		home[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return &TemplateNarrator{homeCountries: home}
}

type narrativeLocation struct {
	city, region, country, organization string
}

// Generate implements Narrator.
func (n *TemplateNarrator) Generate(ctx context.Context, incident Incident) (Narrative, error) {
	if err := ctx.Err(); err != nil {
		return Narrative{}, err
	}

	locations := incidentLocations(incident.Evidence.IPVelocity)
	manyFailures := len(incident.Evidence.FailedAttempts) > 5

	sentences := make([]string, 0, len(locations))
	tagSet := make(map[string]struct{})
	for _, loc := range locations {
		var parts []string

		if loc.country != "" {
			if _, home := n.homeCountries[strings.ToLower(loc.country)]; !home {
				parts = append(parts, fmt.Sprintf(
					"Suspicious login detected from %s, %s, %s, which is outside the user's usual region.",
					orDefault(loc.city, "Unknown City"), orDefault(loc.region, "Unknown Region"), loc.country))
			}
			tagSet[loc.country] = struct{}{}
		}
		if strings.Contains(strings.ToUpper(loc.organization), "VPN") {
			parts = append(parts, "The IP belongs to a VPN provider, indicating possible location spoofing.")
		}
		if manyFailures {
			parts = append(parts, "Multiple failed login attempts suggest potential brute-force activity.")
		}
		if len(parts) == 0 {
			parts = append(parts, "Login event observed with no significant anomalies based on location data.")
		}

		sentences = append(sentences, strings.Join(parts, " "))
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return Narrative{
		Narrative:        strings.Join(sentences, " "),
		Recommendation:   recommendationForScore(incident.RiskScore),
		LocalizationTags: tags,
	}, nil
}

func recommendationForScore(score int) string {
	switch {
	case score >= blockScore:
		return "Block IP(s) and initiate password reset for the user."
	case score >= monitorScore:
		return "Monitor account activity closely and alert the user."
	default:
		return "No action required. Continue normal monitoring."
	}
}

// incidentLocations returns the distinct locations of events in first-seen
// order. An incident without events still yields one empty location.
func incidentLocations(events []LoginEvent) []narrativeLocation {
	seen := make(map[narrativeLocation]struct{})
	var out []narrativeLocation
	for _, e := range events {
		loc := narrativeLocation{
			city:         deref(e.City),
			region:       deref(e.Region),
			country:      deref(e.Country),
			organization: deref(e.Organization),
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	if len(out) == 0 {
		out = append(out, narrativeLocation{})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

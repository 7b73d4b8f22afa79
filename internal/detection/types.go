// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrInvalidWindow is returned when a detection window cannot be parsed
	// or its start is after its end.
	ErrInvalidWindow = errors.New("invalid detection window")

	// ErrNoTenantKey is returned when a tenant-scoped operation has no key.
	ErrNoTenantKey = errors.New("tenant key is required")
)

// DefaultTenantKey is used for events stored without a tenant key.
const DefaultTenantKey = "default_key"

// AlertCategory is the category tag carried by every alert.
const AlertCategory = "detect-cred-stuff"

// Status is the verdict attached to an incident or alert.
type Status string

const (
	StatusAlert Status = "ALERT"
	StatusOK    Status = "OK"
)

// GeoAttributes holds optional enrichment for a login event. Every field is
// nil when enrichment failed or was disabled.
type GeoAttributes struct {
	City           *string  `json:"city"`
	Region         *string  `json:"region"`
	Country        *string  `json:"country"`
	Continent      *string  `json:"continent"`
	PostalCode     *string  `json:"postal_code"`
	Timezone       *string  `json:"timezone"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Organization   *string  `json:"organization"`
	ASN            *int     `json:"asn"`
	ISOCountryCode *string  `json:"iso_country_code"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (g *GeoAttributes) HasCoordinates() bool {
	return g.Latitude != nil && g.Longitude != nil
}

// LoginEvent is one authentication attempt as stored by ingestion.
// The detection core never mutates events.
type LoginEvent struct {
	ID                int64     `json:"id"`
	TenantKey         string    `json:"key"`
	UserID            string    `json:"user_id"`
	IP                string    `json:"ip"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	Success           bool      `json:"success"`
	Timestamp         time.Time `json:"timestamp"`
	GeoAttributes
}

// LocationAnomaly records two adjacent logins of one user that are too far
// apart for the time between them.
type LocationAnomaly struct {
	FromEvent   LoginEvent `json:"from_event"`
	ToEvent     LoginEvent `json:"to_event"`
	DistanceKm  float64    `json:"distance_km"`
	TimeDiffMin float64    `json:"time_diff_min"`
	Note        string     `json:"note"`
}

// Evidence is the event material backing an incident's score.
type Evidence struct {
	FailedAttempts     []LoginEvent      `json:"failed_attempts"`
	SuccessfulAttempts []LoginEvent      `json:"successful_attempts"`
	IPVelocity         []LoginEvent      `json:"ip_velocity"`
	DeviceReuse        []LoginEvent      `json:"device_reuse"`
	LocationAnomalies  []LocationAnomaly `json:"location_anomalies"`
}

// Incident is one scored (user, ip, device fingerprint) partition.
type Incident struct {
	Status            Status    `json:"status"`
	RiskScore         int       `json:"risk_score"`
	IPs               []string  `json:"ip"`
	DeviceFingerprint string    `json:"device_fingerprint"`
	UserID            string    `json:"user_id"`
	EventTimestamp    time.Time `json:"event_timestamp"`
	Evidence          Evidence  `json:"detection_evidence"`
	// TriggeredRules names the rules that contributed to RiskScore.
	TriggeredRules []string `json:"triggered_rules"`

	Narrative        string   `json:"native_narrative"`
	Recommendation   string   `json:"recommendation"`
	LocalizationTags []string `json:"localization_tags"`
	NarrativeError   string   `json:"narrative_error,omitempty"`
}

// AlertMessage is the payload delivered to broadcast subscribers and
// external notifiers.
type AlertMessage struct {
	AlertID           string   `json:"alert_id"`
	Status            Status   `json:"status"`
	Category          string   `json:"cata"`
	RiskScore         int      `json:"risk_score"`
	UserID            string   `json:"user_id"`
	DeviceFingerprint string   `json:"device_fingerprint"`
	IP                string   `json:"ip"`
	TenantKey         string   `json:"key"`
	Timestamp         string   `json:"timestamp"`
	TriggeredRules    []string `json:"triggered_rules,omitempty"`
}

// AlertKey identifies the subject of an alert for cooldown purposes.
type AlertKey struct {
	UserID    string
	IP        string
	TenantKey string
}

// String renders the key for logs and key-value stores.
func (k AlertKey) String() string {
	return k.TenantKey + "|" + k.UserID + "|" + k.IP
}

// Config holds the scoring thresholds shared by every scope.
type Config struct {
	SuccessThreshold          int
	TimeWindow                time.Duration
	LocationAnomalyDistanceKm float64
	LocationAnomalyTime       time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SuccessThreshold:          5,
		TimeWindow:                300 * time.Second,
		LocationAnomalyDistanceKm: 500.0,
		LocationAnomalyTime:       60 * time.Minute,
	}
}

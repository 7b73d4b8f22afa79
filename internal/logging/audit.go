// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package logging

import (
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
)

// AlertDecision is the outcome recorded for a risk-qualifying event.
type AlertDecision string

const (
	// DecisionDispatched means the alert was published to subscribers.
	DecisionDispatched AlertDecision = "dispatched"
	// DecisionSuppressed means the alert was held back by the cooldown.
	DecisionSuppressed AlertDecision = "suppressed"
)

// AlertAuditEvent describes one alert decision made by the monitor.
type AlertAuditEvent struct {
	Decision          AlertDecision
	TenantKey         string
	UserID            string
	IP                string
	DeviceFingerprint string
	RiskScore         int
	EventTime         time.Time
	// LastAlert is the previous alert time for the key, zero when never alerted.
	LastAlert time.Time
}

// AlertAuditLogger writes one audit line per alert decision.
type AlertAuditLogger struct {
	logger zerolog.Logger
}

// NewAlertAuditLogger creates an audit logger on top of the global logger.
func NewAlertAuditLogger() *AlertAuditLogger {
	return &AlertAuditLogger{
		logger: With().Str("component", "alert-audit").Logger(),
	}
}

// NewAlertAuditLoggerWithLogger creates an audit logger with a custom zerolog logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAlertAuditLoggerWithLogger(logger zerolog.Logger) *AlertAuditLogger {
	return &AlertAuditLogger{
		logger: logger.With().Str("component", "alert-audit").Logger(),
	}
}

// Log records the decision. Identifiers coming from login events are
// attacker controlled, so they are masked and stripped before logging.
func (l *AlertAuditLogger) Log(event *AlertAuditEvent) {
	e := l.logger.Info().
		Str("event", "alert_"+string(event.Decision)).
		Str("tenant", SanitizeLogValue(event.TenantKey)).
		Str("user_id", SanitizeUserID(SanitizeLogValue(event.UserID))).
		Str("ip", SanitizeLogValue(event.IP)).
		Str("device_fingerprint", truncateString(SanitizeLogValue(event.DeviceFingerprint), 64)).
		Int("risk_score", event.RiskScore)

	if !event.EventTime.IsZero() {
		e = e.Time("event_time", event.EventTime)
	}
	if !event.LastAlert.IsZero() {
		e = e.Time("last_alert", event.LastAlert)
	}

	e.Msg("")
}

// SanitizeUserID masks a user ID for privacy.
// Example: "user-12345678" -> "user...5678"
func SanitizeUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// SanitizeLogValue removes control characters (CR, LF, etc.) to prevent log injection.
func SanitizeLogValue(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package logging provides centralized zerolog-based structured logging for CredGuard.
//
// Every component logs through a single global zerolog logger configured once
// at startup. Libraries that expect other logging interfaces are bridged onto
// the same pipeline:
//
//   - slog (used by sutureslog for supervisor events) via SlogHandler
//   - watermill.LoggerAdapter (used by the NATS alert publisher) via WatermillAdapter
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("tenant", key).Msg("monitor started")
//	logging.Ctx(ctx).Error().Err(err).Msg("detection failed")
//
// # Configuration
//
// Environment Variables (read by internal/config):
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Alert Auditing
//
// AlertAuditLogger writes one line per alert decision (dispatched or
// suppressed by cooldown). User identifiers are masked with SanitizeUserID
// and free-form values are stripped of control characters so that attacker
// controlled fields such as device fingerprints cannot forge log lines.
//
// # Output Formats
//
// JSON Format (Production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"alert dispatched","risk_score":60}
//
// Console Format (Development):
//
//	10:30:00 INF alert dispatched risk_score=60
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
package logging

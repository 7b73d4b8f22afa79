// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package detection correlates login events into scored credential-stuffing
// incidents and drives the continuous alerting loop.
//
// Detection Architecture:
//
//	EventStore -> Scorer -> Monitor (cooldown + checkpoint) -> AlertPublisher
//	                |                         |
//	                v                         v
//	            Detector               Webhook/Kafka/NATS notifiers
//	     (on-demand, synchronous)
//
// Scoring:
// One RuleSet holds the threshold table. It is evaluated over Signals that
// are gathered by a Scope:
//   - PartitionScope: one (ip, device fingerprint) partition of a user's
//     events, used by the on-demand Detector
//   - TripleScope: the events surrounding a single login for its
//     (user, ip, device fingerprint) triple, used by the Monitor
//
// Impossible travel is computed once per user over adjacent events and the
// same anomaly list is attached to every incident of that user.
//
// Monitor:
// The Monitor polls the event store on a fixed interval, scores each new
// event in its own narrow window, publishes alerts that pass the cooldown
// and only then advances the checkpoint. A failed cycle leaves the checkpoint
// untouched so the same window is evaluated again on the next tick.
package detection

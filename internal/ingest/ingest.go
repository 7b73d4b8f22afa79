// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package ingest records login attempts reported by authentication
// services: it enriches the source IP with location attributes, stamps the
// event with the receive time and stores it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/geoip"
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

// EventWriter persists login events and assigns their ids.
type EventWriter interface {
	InsertLoginEvent(ctx context.Context, ev *detection.LoginEvent) error
}

// Attempt is one reported login attempt.
type Attempt struct {
	TenantKey         string
	UserID            string
	IP                string
	DeviceFingerprint string
	Success           bool
}

// Service enriches and stores login attempts.
type Service struct {
	store    EventWriter
	enricher geoip.Enricher
	now      func() time.Time
}

// NewService creates an ingestion service. enricher may be nil.
func NewService(store EventWriter, enricher geoip.Enricher) *Service {
	return &Service{
		store:    store,
		enricher: enricher,
		now:      time.Now,
	}
}

// Record stores attempt and returns the stored event. Enrichment failures
// never fail the insert; the event is stored without location attributes.
func (s *Service) Record(ctx context.Context, attempt Attempt) (*detection.LoginEvent, error) {
	if attempt.TenantKey == "" {
		return nil, detection.ErrNoTenantKey
	}

	ev := &detection.LoginEvent{
		TenantKey:         attempt.TenantKey,
		UserID:            attempt.UserID,
		IP:                attempt.IP,
		DeviceFingerprint: attempt.DeviceFingerprint,
		Success:           attempt.Success,
		Timestamp:         s.now().UTC(),
	}

	if s.enricher != nil {
		attrs, err := s.enricher.Lookup(attempt.IP)
		switch {
		case err == nil:
			ev.GeoAttributes = attrs
		case errors.Is(err, geoip.ErrDisabled):
		default:
			logging.Ctx(ctx).Debug().
				Str("ip", logging.SanitizeLogValue(attempt.IP)).
				Err(err).
				Msg("Login event stored without location attributes")
		}
	}

	if err := s.store.InsertLoginEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("store login event: %w", err)
	}

	metrics.RecordLoginEventIngested(ev.Success)
	return ev, nil
}

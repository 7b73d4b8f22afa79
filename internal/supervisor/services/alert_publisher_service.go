// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/credguard/internal/logging"
)

// Drainer is satisfied by *detection.NotifierFanout. Close stops accepting
// alerts and waits for in-flight sends.
type Drainer interface {
	Close()
}

// AlertPublisherService owns the external alert sinks. It does no work while
// running; on shutdown it drains the notifier fan-out first and then closes
// each sink, so buffered Kafka messages are flushed and the NATS connection
// is released after the last alert was handed over.
type AlertPublisherService struct {
	fanout Drainer
	sinks  []io.Closer
	name   string
}

// NewAlertPublisherService creates the service. fanout may be nil when no
// notifier is configured.
func NewAlertPublisherService(fanout Drainer, sinks ...io.Closer) *AlertPublisherService {
	return &AlertPublisherService{
		fanout: fanout,
		sinks:  sinks,
		name:   "alert-publisher",
	}
}

// Serve implements suture.Service.
func (a *AlertPublisherService) Serve(ctx context.Context) error {
	<-ctx.Done()

	if a.fanout != nil {
		a.fanout.Close()
	}

	var errs []error
	for _, sink := range a.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close alert sink: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Err(err).Msg("Alert sinks did not close cleanly")
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (a *AlertPublisherService) String() string {
	return a.name
}

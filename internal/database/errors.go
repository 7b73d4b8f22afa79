// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package database

import (
	"errors"
	"io"
	"log/slog"

	"github.com/tomtom215/credguard/internal/logging"
)

var (
	// ErrUnsupportedDriver is returned for an unknown database.driver.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrUnsupportedCheckpointBackend is returned for an unknown checkpoint.backend.
	ErrUnsupportedCheckpointBackend = errors.New("unsupported checkpoint backend")
)

// closeWithLog closes a resource and logs any error
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, logger *slog.Logger, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		if logger != nil {
			logger.Error("failed to close resource",
				"type", resourceType,
				"error", err)
		} else {
			logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
		}
	}
}

// closeQuietly closes a resource and explicitly ignores any error
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

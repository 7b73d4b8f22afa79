// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/ingest"
	"github.com/tomtom215/credguard/internal/models"
)

// LoginLogs records one login attempt reported by an authentication
// service and echoes the stored event.
func (h *Handler) LoginLogs(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.LoginLogRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ev, err := h.ingester.Record(r.Context(), ingest.Attempt{
		TenantKey:         req.Key,
		UserID:            req.UserID,
		IP:                req.IP,
		DeviceFingerprint: req.DeviceFingerprint,
		Success:           bool(*req.Success),
	})
	if err != nil {
		if errors.Is(err, detection.ErrNoTenantKey) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeIngest, "Failed to store login event", err)
		return
	}

	respondSuccess(w, http.StatusOK, models.LoginLogResponse{
		ID:                ev.ID,
		Timestamp:         ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Key:               ev.TenantKey,
		UserID:            ev.UserID,
		IP:                ev.IP,
		DeviceFingerprint: ev.DeviceFingerprint,
		Success:           req.Success.Int(),
	}, started)
}

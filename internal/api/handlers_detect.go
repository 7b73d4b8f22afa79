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
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/models"
)

// DetectCredStuff runs on-demand detection over one tenant's events.
//
// The request names the tenant and an optional window. start_date and
// end_date must be given together; without them the window is the
// configured default span ending now. The response echoes the normalized
// UTC window that was queried. The result is written at the top level,
// not inside the APIResponse envelope; errors still use the envelope.
func (h *Handler) DetectCredStuff(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req models.DetectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	window, err := detection.ParseWindow(derefString(req.StartDate), derefString(req.EndDate), h.now(), h.defaultWindow())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeInvalidDate, err.Error(), nil)
		return
	}

	result, err := h.detector.Detect(r.Context(), req.Key, window)
	if err != nil {
		if errors.Is(err, detection.ErrNoTenantKey) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDetection, "Detection failed", err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("key", logging.SanitizeLogValue(req.Key)).
		Time("window_start", window.Start).
		Time("window_end", window.End).
		Int("users", len(result.Users)).
		Dur("elapsed", time.Since(started)).
		Msg("On-demand detection completed")

	respondJSON(w, http.StatusOK, result)
}

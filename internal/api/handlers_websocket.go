// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/models"
	ws "github.com/tomtom215/credguard/internal/websocket"
)

// maxGroupKeyLength matches the tenant key limit of the JSON endpoints.
const maxGroupKeyLength = 255

// WebSocket subscribes the connection to the alerts of one tenant. The
// client is removed from the group when its read loop ends.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	group := chi.URLParam(r, "group_key")
	if strings.TrimSpace(group) == "" || len(group) > maxGroupKeyLength {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "group_key is required", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, group)
	h.wsHub.Subscribe(client, group)
	client.Start()

	logging.Ctx(r.Context()).Info().
		Uint64("client_id", client.ID()).
		Str("group", logging.SanitizeLogValue(group)).
		Msg("WebSocket subscriber connected")
}

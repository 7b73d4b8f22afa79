// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package models

import (
	"bytes"
	"fmt"
	"time"
)

// DetectRequest is the body of POST /detect-cred-stuff. Dates are ISO-8601
// strings; both or neither must be present.
type DetectRequest struct {
	Key       string  `json:"key" validate:"required,max=255,nocontrol"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// LoginLogRequest is the body of POST /login-logs.
type LoginLogRequest struct {
	Key               string    `json:"key" validate:"required,max=255,nocontrol"`
	UserID            string    `json:"user_id" validate:"required,max=255,nocontrol"`
	IP                string    `json:"ip" validate:"required,max=45,nocontrol"`
	DeviceFingerprint string    `json:"device_fingerprint" validate:"required,max=255,nocontrol"`
	Success           *FlexBool `json:"success" validate:"required"`
}

// LoginLogResponse echoes a stored login event.
type LoginLogResponse struct {
	ID                int64  `json:"id"`
	Timestamp         string `json:"timestamp"`
	Key               string `json:"key"`
	UserID            string `json:"user_id"`
	IP                string `json:"ip"`
	DeviceFingerprint string `json:"device_fingerprint"`
	Success           int    `json:"success"`
}

// FlexBool accepts JSON true/false as well as 0/1.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("success must be 0, 1, true or false, got %s", data)
	}
	return nil
}

// Int returns 1 for true and 0 for false.
func (b FlexBool) Int() int {
	if b {
		return 1
	}
	return 0
}

// MessageResponse is the body of GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of the readiness endpoint.
type HealthResponse struct {
	Status          string     `json:"status"`
	Version         string     `json:"version"`
	EventStore      string     `json:"event_store"`
	MonitorRunning  bool       `json:"monitor_running"`
	LastCycle       *time.Time `json:"last_cycle,omitempty"`
	LastCycleError  string     `json:"last_cycle_error,omitempty"`
	Checkpoint      *time.Time `json:"checkpoint,omitempty"`
	WebSocketGroups int        `json:"websocket_groups"`
	WebSocketConns  int        `json:"websocket_connections"`
	Uptime          float64    `json:"uptime_seconds"`
}

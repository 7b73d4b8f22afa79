// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package models defines the HTTP request and response bodies.
//
// Every JSON API response is wrapped in APIResponse; error responses carry
// an APIError whose Code is one of the ErrCode constants. The websocket
// alert payload and the detection result are defined in package detection.
package models

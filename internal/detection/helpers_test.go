// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"io"
	"time"

	"github.com/tomtom215/credguard/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

var baseTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// testEvent builds a login event offset seconds after baseTime.
func testEvent(id int64, user, ip, device string, success bool, offset time.Duration) LoginEvent {
	return LoginEvent{
		ID:                id,
		TenantKey:         "tenant-a",
		UserID:            user,
		IP:                ip,
		DeviceFingerprint: device,
		Success:           success,
		Timestamp:         baseTime.Add(offset),
	}
}

func withCoords(e LoginEvent, lat, lon float64) LoginEvent {
	e.Latitude = floatPtr(lat)
	e.Longitude = floatPtr(lon)
	return e
}

func withLocation(e LoginEvent, city, region, country, org string) LoginEvent {
	if city != "" {
		e.City = strPtr(city)
	}
	if region != "" {
		e.Region = strPtr(region)
	}
	if country != "" {
		e.Country = strPtr(country)
	}
	if org != "" {
		e.Organization = strPtr(org)
	}
	return e
}

// repeat returns n events for the same triple, one second apart.
func repeat(n int, startID int64, user, ip, device string, success bool, start time.Duration) []LoginEvent {
	events := make([]LoginEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, testEvent(startID+int64(i), user, ip, device, success, start+time.Duration(i)*time.Second))
	}
	return events
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Coordinates used by travel tests.
const (
	delhiLat, delhiLon   = 28.6139, 77.2090
	mumbaiLat, mumbaiLon = 19.0760, 72.8777
	noidaLat, noidaLon   = 28.5355, 77.3910
)

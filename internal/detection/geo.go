// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// haversineDistance calculates the great-circle distance between two points
// on Earth using the Haversine formula. Returns distance in kilometers.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// detectImpossibleTravel scans adjacent pairs of a timestamp-sorted event
// slice. A pair is anomalous when it falls inside LocationAnomalyTime, both
// sides carry coordinates, and the distance exceeds LocationAnomalyDistanceKm.
func detectImpossibleTravel(sorted []LoginEvent, cfg Config) []LocationAnomaly {
	var anomalies []LocationAnomaly
	maxGapMin := cfg.LocationAnomalyTime.Minutes()

	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Timestamp.IsZero() || curr.Timestamp.IsZero() {
			continue
		}

		diffMin := curr.Timestamp.Sub(prev.Timestamp).Minutes()
		if diffMin > maxGapMin {
			continue
		}
		if !prev.HasCoordinates() || !curr.HasCoordinates() {
			continue
		}

		distKm := haversineDistance(*prev.Latitude, *prev.Longitude, *curr.Latitude, *curr.Longitude)
		if distKm <= cfg.LocationAnomalyDistanceKm {
			continue
		}

		anomalies = append(anomalies, LocationAnomaly{
			FromEvent:   prev,
			ToEvent:     curr,
			DistanceKm:  distKm,
			TimeDiffMin: diffMin,
			Note:        fmt.Sprintf("Impossible travel detected: %.1f km in %.1f minutes", distKm, diffMin),
		})
	}

	return anomalies
}

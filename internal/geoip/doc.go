// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

// Package geoip enriches login events with location attributes from MaxMind
// GeoLite2/GeoIP2 databases.
//
// The ASN database supplies asn and organization, the City database supplies
// city, region (most specific subdivision), country, continent, postal code,
// time zone and coordinates, and the Country database supplies the ISO
// country code. Results are cached per IP for an hour.
package geoip

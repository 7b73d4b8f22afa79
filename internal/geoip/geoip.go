// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package geoip

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/tomtom215/credguard/internal/cache"
	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/logging"
	"github.com/tomtom215/credguard/internal/metrics"
)

var (
	// ErrInvalidIP is returned when the address does not parse.
	ErrInvalidIP = errors.New("invalid ip address")

	// ErrDisabled is returned by the disabled enricher.
	ErrDisabled = errors.New("geoip enrichment disabled")
)

const (
	lookupCacheSize = 10000
	lookupCacheTTL  = time.Hour
)

// Enricher resolves an IP address to location attributes.
type Enricher interface {
	Lookup(ip string) (detection.GeoAttributes, error)
	Close() error
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

type asnReader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
}

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

// MaxMindEnricher reads MaxMind City, ASN and Country databases. Each
// database is optional; a missing or failing one leaves its attributes nil.
type MaxMindEnricher struct {
	city    cityReader
	asn     asnReader
	country countryReader
	closers []*geoip2.Reader

	lookups     *cache.LRUCache[detection.GeoAttributes]
	stopCleanup func()
}

// Open builds the enricher selected by cfg. A disabled config yields an
// enricher that always returns ErrDisabled.
func Open(cfg config.GeoIPConfig) (Enricher, error) {
	if !cfg.Enabled {
		return disabledEnricher{}, nil
	}

	e := newMaxMindEnricher(nil, nil, nil)
	open := func(path, name string) (*geoip2.Reader, error) {
		if path == "" {
			return nil, nil
		}
		r, err := geoip2.Open(path)
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("open %s database %s: %w", name, path, err)
		}
		e.closers = append(e.closers, r)
		return r, nil
	}

	cityDB, err := open(cfg.CityDB, "city")
	if err != nil {
		return nil, err
	}
	if cityDB != nil {
		e.city = cityDB
	}
	asnDB, err := open(cfg.ASNDB, "asn")
	if err != nil {
		return nil, err
	}
	if asnDB != nil {
		e.asn = asnDB
	}
	countryDB, err := open(cfg.CountryDB, "country")
	if err != nil {
		return nil, err
	}
	if countryDB != nil {
		e.country = countryDB
	}

	logging.Info().
		Bool("city", e.city != nil).
		Bool("asn", e.asn != nil).
		Bool("country", e.country != nil).
		Msg("GeoIP enrichment enabled")

	return e, nil
}

func newMaxMindEnricher(city cityReader, asn asnReader, country countryReader) *MaxMindEnricher {
	lookups := cache.NewLRUCache[detection.GeoAttributes](lookupCacheSize, lookupCacheTTL)
	return &MaxMindEnricher{
		city:        city,
		asn:         asn,
		country:     country,
		lookups:     lookups,
		stopCleanup: lookups.StartCleanup(lookupCacheTTL),
	}
}

// Lookup returns the attributes for ip. Per-database failures are counted
// and leave their attributes nil; only an unparsable address is an error.
func (e *MaxMindEnricher) Lookup(ip string) (detection.GeoAttributes, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return detection.GeoAttributes{}, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	key := addr.String()
	if attrs, ok := e.lookups.Get(key); ok {
		return attrs, nil
	}

	var attrs detection.GeoAttributes
	if e.asn != nil {
		if rec, err := e.asn.ASN(addr); err != nil {
			lookupFailed("asn", key, err)
		} else {
			applyASN(&attrs, rec)
		}
	}
	if e.city != nil {
		if rec, err := e.city.City(addr); err != nil {
			lookupFailed("city", key, err)
		} else {
			applyCity(&attrs, rec)
		}
	}
	if e.country != nil {
		if rec, err := e.country.Country(addr); err != nil {
			lookupFailed("country", key, err)
		} else {
			attrs.ISOCountryCode = optString(rec.Country.IsoCode)
		}
	}

	e.lookups.Add(key, attrs)
	return attrs, nil
}

// Close stops the lookup cache sweep and closes every opened database.
func (e *MaxMindEnricher) Close() error {
	e.stopCleanup()

	var errs []error
	for _, r := range e.closers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func lookupFailed(database, ip string, err error) {
	metrics.GeoIPLookupFailures.WithLabelValues(database).Inc()
	logging.Debug().Str("database", database).Str("ip", ip).Err(err).Msg("GeoIP lookup failed")
}

func applyASN(attrs *detection.GeoAttributes, rec *geoip2.ASN) {
	if rec.AutonomousSystemNumber != 0 {
		asn := int(rec.AutonomousSystemNumber)
		attrs.ASN = &asn
	}
	attrs.Organization = optString(rec.AutonomousSystemOrganization)
}

func applyCity(attrs *detection.GeoAttributes, rec *geoip2.City) {
	attrs.City = optString(rec.City.Names["en"])
	if n := len(rec.Subdivisions); n > 0 {
		attrs.Region = optString(rec.Subdivisions[n-1].Names["en"])
	}
	attrs.Country = optString(rec.Country.Names["en"])
	attrs.Continent = optString(rec.Continent.Names["en"])
	attrs.PostalCode = optString(rec.Postal.Code)
	attrs.Timezone = optString(rec.Location.TimeZone)

	// A record without a location decodes to (0, 0) with no accuracy radius.
	loc := rec.Location
	if loc.AccuracyRadius != 0 || loc.Latitude != 0 || loc.Longitude != 0 {
		lat, lon := loc.Latitude, loc.Longitude
		attrs.Latitude = &lat
		attrs.Longitude = &lon
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type disabledEnricher struct{}

func (disabledEnricher) Lookup(string) (detection.GeoAttributes, error) {
	return detection.GeoAttributes{}, ErrDisabled
}

func (disabledEnricher) Close() error { return nil }

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package config provides centralized configuration management for CredGuard.

Configuration is loaded with Koanf v2 in layers, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/credguard/config.yaml)
 3. Environment variables mapped explicitly in envTransformFunc

The resulting Config is validated once and is immutable afterwards.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, SERVER_TIMEOUT, ENVIRONMENT

Event store:
  - DB_DRIVER: duckdb (default) or postgres
  - DUCKDB_PATH, DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - POSTGRES_DSN, POSTGRES_MAX_CONNS

Detection:
  - SUCCESS_THRESHOLD (default: 5), TIME_WINDOW (default: 300s)
  - LOCATION_ANOMALY_DISTANCE_KM (default: 500), LOCATION_ANOMALY_TIME (default: 60m)
  - MONITOR_INTERVAL (default: 5s), ALERT_COOLDOWN (default: 300s), ALERT_THRESHOLD (default: 5)
  - MONITOR_LOOKBACK (default: 5m), QUERY_TIMEOUT, NARRATIVE_TIMEOUT, HOME_COUNTRIES

Checkpoint and dedup:
  - CHECKPOINT_BACKEND: file (default), badger or database
  - CHECKPOINT_PATH
  - DEDUP_BACKEND: memory (default) or redis
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX, DEDUP_CAPACITY

Notifiers:
  - WEBHOOK_ENABLED, WEBHOOK_URL, WEBHOOK_HEADERS ("Name=Value,Name2=Value2"), WEBHOOK_RATE_LIMIT
  - KAFKA_ENABLED, KAFKA_BROKERS, KAFKA_TOPIC
  - NATS_ENABLED, NATS_URL, NATS_SUBJECT_PREFIX

GeoIP enrichment:
  - GEOIP_ENABLED, GEOIP_CITY_DB, GEOIP_ASN_DB, GEOIP_COUNTRY_DB

Security and logging:
  - CORS_ORIGINS, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load config")
	}
*/
package config

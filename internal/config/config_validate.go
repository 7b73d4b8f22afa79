// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateDetection,
		c.validateCheckpoint,
		c.validateDedup,
		c.validateNotifiers,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=duckdb")
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		if c.Database.PostgresMaxConns < 1 {
			return fmt.Errorf("POSTGRES_MAX_CONNS must be at least 1")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of duckdb, postgres; got %q", c.Database.Driver)
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if d.SuccessThreshold < 1 {
		return fmt.Errorf("SUCCESS_THRESHOLD must be at least 1")
	}
	if d.TimeWindow <= 0 {
		return fmt.Errorf("TIME_WINDOW must be positive")
	}
	if d.LocationAnomalyDistanceKm <= 0 {
		return fmt.Errorf("LOCATION_ANOMALY_DISTANCE_KM must be positive")
	}
	if d.LocationAnomalyTime <= 0 {
		return fmt.Errorf("LOCATION_ANOMALY_TIME must be positive")
	}
	if d.MonitorInterval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive")
	}
	if d.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be non-negative")
	}
	if d.AlertThreshold < 0 {
		return fmt.Errorf("ALERT_THRESHOLD must be non-negative")
	}
	if d.MonitorLookback <= 0 {
		return fmt.Errorf("MONITOR_LOOKBACK must be positive")
	}
	if d.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}
	if d.DefaultWindow <= 0 {
		return fmt.Errorf("DETECTION_DEFAULT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateCheckpoint() error {
	switch c.Checkpoint.Backend {
	case CheckpointFile, CheckpointBadger:
		if c.Checkpoint.Path == "" {
			return fmt.Errorf("CHECKPOINT_PATH is required for the %s checkpoint backend", c.Checkpoint.Backend)
		}
	case CheckpointDatabase:
	default:
		return fmt.Errorf("CHECKPOINT_BACKEND must be one of file, badger, database; got %q", c.Checkpoint.Backend)
	}
	return nil
}

func (c *Config) validateDedup() error {
	switch c.Dedup.Backend {
	case DedupMemory:
		if c.Dedup.Capacity < 1 {
			return fmt.Errorf("DEDUP_CAPACITY must be at least 1")
		}
	case DedupRedis:
		if c.Dedup.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when DEDUP_BACKEND=redis")
		}
	default:
		return fmt.Errorf("DEDUP_BACKEND must be one of memory, redis; got %q", c.Dedup.Backend)
	}
	if c.Dedup.EvictAfterCooldowns < 1 {
		return fmt.Errorf("DEDUP_EVICT_AFTER_COOLDOWNS must be at least 1")
	}
	return nil
}

func (c *Config) validateNotifiers() error {
	n := c.Notifiers
	if n.Webhook.Enabled {
		if !strings.HasPrefix(n.Webhook.URL, "http://") && !strings.HasPrefix(n.Webhook.URL, "https://") {
			return fmt.Errorf("WEBHOOK_URL must be an http(s) URL when WEBHOOK_ENABLED=true")
		}
	}
	if n.Kafka.Enabled {
		if len(n.Kafka.Brokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
		}
		if n.Kafka.Topic == "" {
			return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_ENABLED=true")
		}
	}
	if n.NATS.Enabled && n.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_ENABLED=true")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}

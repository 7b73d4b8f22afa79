// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/credguard/config.yaml",
	"/etc/credguard/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:           DriverDuckDB,
			Path:             "/data/credguard.duckdb",
			MaxMemory:        "1GB",
			Threads:          0,
			PostgresMaxConns: 10,
		},
		Detection: DetectionConfig{
			SuccessThreshold:          5,
			TimeWindow:                300 * time.Second,
			LocationAnomalyDistanceKm: 500.0,
			LocationAnomalyTime:       60 * time.Minute,
			MonitorInterval:           5 * time.Second,
			AlertCooldown:             300 * time.Second,
			AlertThreshold:            5,
			MonitorLookback:           5 * time.Minute,
			QueryTimeout:              10 * time.Second,
			NarrativeTimeout:          2 * time.Second,
			DefaultWindow:             24 * time.Hour,
			HomeCountries:             []string{"India"},
		},
		Checkpoint: CheckpointConfig{
			Backend: CheckpointFile,
			Path:    "/data/monitor_checkpoint.txt",
		},
		Dedup: DedupConfig{
			Backend:             DedupMemory,
			Capacity:            100000,
			EvictAfterCooldowns: 10,
			RedisAddr:           "127.0.0.1:6379",
			RedisPrefix:         "credguard:dedup:",
		},
		Notifiers: NotifiersConfig{
			Webhook: WebhookNotifierConfig{
				RateLimit: 500 * time.Millisecond,
				Timeout:   10 * time.Second,
			},
			Kafka: KafkaNotifierConfig{
				Topic:        "credguard.alerts",
				WriteTimeout: 10 * time.Second,
			},
			NATS: NATSNotifierConfig{
				URL:           "nats://127.0.0.1:4222",
				SubjectPrefix: "credguard.alerts",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			},
		},
		GeoIP: GeoIPConfig{
			Enabled:   false,
			CityDB:    "/data/geoip/GeoLite2-City.mmdb",
			ASNDB:     "/data/geoip/GeoLite2-ASN.mmdb",
			CountryDB: "/data/geoip/GeoLite2-Country.mmdb",
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:     256,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"detection.home_countries",
	"notifiers.kafka.brokers",
	"notifiers.webhook.headers",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars always arrive as strings while YAML files already produce slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak into config.
var envMappings = map[string]string{
	// Server
	"http_host":      "server.host",
	"http_port":      "server.port",
	"server_timeout": "server.timeout",
	"environment":    "server.environment",

	// Event store
	"db_driver":          "database.driver",
	"duckdb_path":        "database.path",
	"duckdb_max_memory":  "database.max_memory",
	"duckdb_threads":     "database.threads",
	"postgres_dsn":       "database.postgres_dsn",
	"postgres_max_conns": "database.postgres_max_conns",

	// Detection
	"success_threshold":            "detection.success_threshold",
	"time_window":                  "detection.time_window",
	"location_anomaly_distance_km": "detection.location_anomaly_distance_km",
	"location_anomaly_time":        "detection.location_anomaly_time",
	"monitor_interval":             "detection.monitor_interval",
	"alert_cooldown":               "detection.alert_cooldown",
	"alert_threshold":              "detection.alert_threshold",
	"monitor_lookback":             "detection.monitor_lookback",
	"query_timeout":                "detection.query_timeout",
	"narrative_timeout":            "detection.narrative_timeout",
	"detection_default_window":     "detection.default_window",
	"home_countries":               "detection.home_countries",

	// Checkpoint
	"checkpoint_backend": "checkpoint.backend",
	"checkpoint_path":    "checkpoint.path",

	// Dedup
	"dedup_backend":               "dedup.backend",
	"dedup_capacity":              "dedup.capacity",
	"dedup_evict_after_cooldowns": "dedup.evict_after_cooldowns",
	"redis_addr":                  "dedup.redis_addr",
	"redis_password":              "dedup.redis_password",
	"redis_db":                    "dedup.redis_db",
	"redis_prefix":                "dedup.redis_prefix",

	// Notifiers
	"webhook_enabled":     "notifiers.webhook.enabled",
	"webhook_url":         "notifiers.webhook.url",
	"webhook_rate_limit":  "notifiers.webhook.rate_limit",
	"webhook_timeout":     "notifiers.webhook.timeout",
	"webhook_headers":     "notifiers.webhook.headers",
	"kafka_enabled":       "notifiers.kafka.enabled",
	"kafka_brokers":       "notifiers.kafka.brokers",
	"kafka_topic":         "notifiers.kafka.topic",
	"kafka_write_timeout": "notifiers.kafka.write_timeout",
	"nats_enabled":        "notifiers.nats.enabled",
	"nats_url":            "notifiers.nats.url",
	"nats_subject_prefix": "notifiers.nats.subject_prefix",
	"nats_max_reconnects": "notifiers.nats.max_reconnects",
	"nats_reconnect_wait": "notifiers.nats.reconnect_wait",

	// GeoIP
	"geoip_enabled":    "geoip.enabled",
	"geoip_city_db":    "geoip.city_db",
	"geoip_asn_db":     "geoip.asn_db",
	"geoip_country_db": "geoip.country_db",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// WebSocket
	"ws_send_buffer":      "websocket.send_buffer",
	"ws_write_wait":       "websocket.write_wait",
	"ws_pong_wait":        "websocket.pong_wait",
	"ws_max_message_size": "websocket.max_message_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - ALERT_COOLDOWN -> detection.alert_cooldown
//   - KAFKA_BROKERS -> notifiers.kafka.brokers
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

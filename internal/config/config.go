// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package config

import (
	"strings"
	"time"
)

// Config holds all application configuration.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Detection  DetectionConfig  `koanf:"detection"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Dedup      DedupConfig      `koanf:"dedup"`
	Notifiers  NotifiersConfig  `koanf:"notifiers"`
	GeoIP      GeoIPConfig      `koanf:"geoip"`
	Security   SecurityConfig   `koanf:"security"`
	WebSocket  WebSocketConfig  `koanf:"websocket"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging" or "production"
}

// Database drivers supported for the login event store.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the login event store.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`

	// DuckDB settings
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = use NumCPU

	// PostgreSQL settings
	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int32  `koanf:"postgres_max_conns"`
}

// DetectionConfig holds the scoring thresholds and the monitor schedule.
type DetectionConfig struct {
	// SuccessThreshold is the number of successful logins inside TimeWindow
	// that counts as a burst.
	SuccessThreshold int `koanf:"success_threshold"`

	// TimeWindow is the burst detection window.
	TimeWindow time.Duration `koanf:"time_window"`

	// LocationAnomalyDistanceKm is the great-circle distance above which two
	// adjacent logins are considered impossible travel.
	LocationAnomalyDistanceKm float64 `koanf:"location_anomaly_distance_km"`

	// LocationAnomalyTime is the maximum gap between two logins for the
	// distance check to apply.
	LocationAnomalyTime time.Duration `koanf:"location_anomaly_time"`

	MonitorInterval time.Duration `koanf:"monitor_interval"`
	AlertCooldown   time.Duration `koanf:"alert_cooldown"`
	AlertThreshold  int           `koanf:"alert_threshold"`

	// MonitorLookback is the per-event analysis window used by the monitor.
	MonitorLookback time.Duration `koanf:"monitor_lookback"`

	// QueryTimeout bounds each event store query issued by the monitor.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	NarrativeTimeout time.Duration `koanf:"narrative_timeout"`

	// DefaultWindow is used by on-demand detection when no dates are supplied.
	DefaultWindow time.Duration `koanf:"default_window"`

	HomeCountries []string `koanf:"home_countries"`
}

// Checkpoint backends.
const (
	CheckpointFile     = "file"
	CheckpointBadger   = "badger"
	CheckpointDatabase = "database"
)

// CheckpointConfig selects where the monitor persists its high-water mark.
type CheckpointConfig struct {
	Backend string `koanf:"backend"`
	// Path is a file path for the file backend and a directory for badger.
	Path string `koanf:"path"`
}

// Dedup backends.
const (
	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// DedupConfig selects the alert cooldown store.
type DedupConfig struct {
	Backend string `koanf:"backend"`

	// Capacity bounds the in-memory store.
	Capacity int `koanf:"capacity"`

	// EvictAfterCooldowns is the number of cooldown periods after which an
	// idle entry may be dropped.
	EvictAfterCooldowns int `koanf:"evict_after_cooldowns"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`
}

// NotifiersConfig holds the optional alert sinks that receive every
// dispatched alert in addition to websocket subscribers.
type NotifiersConfig struct {
	Webhook WebhookNotifierConfig `koanf:"webhook"`
	Kafka   KafkaNotifierConfig   `koanf:"kafka"`
	NATS    NATSNotifierConfig    `koanf:"nats"`
}

// WebhookNotifierConfig holds generic webhook notification settings.
type WebhookNotifierConfig struct {
	Enabled   bool          `koanf:"enabled"`
	URL       string        `koanf:"url"`
	RateLimit time.Duration `koanf:"rate_limit"`
	Timeout   time.Duration `koanf:"timeout"`
	// Headers are "Name=Value" pairs added to every request.
	Headers []string `koanf:"headers"`
}

// HeaderMap parses Headers into a map, ignoring malformed entries.
func (w WebhookNotifierConfig) HeaderMap() map[string]string {
	headers := make(map[string]string, len(w.Headers))
	for _, h := range w.Headers {
		name, value, ok := strings.Cut(h, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}

// KafkaNotifierConfig holds Kafka alert stream settings.
type KafkaNotifierConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Brokers      []string      `koanf:"brokers"`
	Topic        string        `koanf:"topic"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// NATSNotifierConfig holds NATS alert bus settings.
type NATSNotifierConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// GeoIPConfig holds MaxMind database locations used by ingestion enrichment.
type GeoIPConfig struct {
	Enabled   bool   `koanf:"enabled"`
	CityDB    string `koanf:"city_db"`
	ASNDB     string `koanf:"asn_db"`
	CountryDB string `koanf:"country_db"`
}

// SecurityConfig holds HTTP hardening settings. Caller authentication is
// handled in front of this service.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// WebSocketConfig tunes alert subscriber connections.
type WebSocketConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`
	MaxMessageSize int64         `koanf:"max_message_size"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, in that order of precedence (lowest first).
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

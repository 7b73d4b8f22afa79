// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns the detection defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}

	d := cfg.Detection
	if d.SuccessThreshold != 5 {
		t.Errorf("SuccessThreshold = %d, want 5", d.SuccessThreshold)
	}
	if d.TimeWindow != 300*time.Second {
		t.Errorf("TimeWindow = %v, want 300s", d.TimeWindow)
	}
	if d.LocationAnomalyDistanceKm != 500 {
		t.Errorf("LocationAnomalyDistanceKm = %v, want 500", d.LocationAnomalyDistanceKm)
	}
	if d.LocationAnomalyTime != time.Hour {
		t.Errorf("LocationAnomalyTime = %v, want 60m", d.LocationAnomalyTime)
	}
	if d.MonitorInterval != 5*time.Second {
		t.Errorf("MonitorInterval = %v, want 5s", d.MonitorInterval)
	}
	if d.AlertCooldown != 300*time.Second {
		t.Errorf("AlertCooldown = %v, want 300s", d.AlertCooldown)
	}
	if d.AlertThreshold != 5 {
		t.Errorf("AlertThreshold = %d, want 5", d.AlertThreshold)
	}
	if d.MonitorLookback != 5*time.Minute {
		t.Errorf("MonitorLookback = %v, want 5m", d.MonitorLookback)
	}
	if d.DefaultWindow != 24*time.Hour {
		t.Errorf("DefaultWindow = %v, want 24h", d.DefaultWindow)
	}

	if cfg.Checkpoint.Backend != CheckpointFile {
		t.Errorf("Checkpoint.Backend = %q, want file", cfg.Checkpoint.Backend)
	}
	if cfg.Dedup.Backend != DedupMemory {
		t.Errorf("Dedup.Backend = %q, want memory", cfg.Dedup.Backend)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DUCKDB_PATH", "database.path"},
		{"DB_DRIVER", "database.driver"},
		{"ALERT_COOLDOWN", "detection.alert_cooldown"},
		{"MONITOR_INTERVAL", "detection.monitor_interval"},
		{"CHECKPOINT_BACKEND", "checkpoint.backend"},
		{"REDIS_ADDR", "dedup.redis_addr"},
		{"KAFKA_BROKERS", "notifiers.kafka.brokers"},
		{"GEOIP_CITY_DB", "geoip.city_db"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_VARIABLE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ALERT_COOLDOWN", "2m")
	t.Setenv("ALERT_THRESHOLD", "20")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("HOME_COUNTRIES", "India,Nepal")
	t.Setenv("WEBHOOK_HEADERS", "Authorization=Bearer xyz,X-Tenant=acme")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Detection.AlertCooldown != 2*time.Minute {
		t.Errorf("AlertCooldown = %v, want 2m", cfg.Detection.AlertCooldown)
	}
	if cfg.Detection.AlertThreshold != 20 {
		t.Errorf("AlertThreshold = %d, want 20", cfg.Detection.AlertThreshold)
	}
	if want := []string{"kafka-1:9092", "kafka-2:9092"}; !reflect.DeepEqual(cfg.Notifiers.Kafka.Brokers, want) {
		t.Errorf("Kafka.Brokers = %v, want %v", cfg.Notifiers.Kafka.Brokers, want)
	}
	if want := []string{"India", "Nepal"}; !reflect.DeepEqual(cfg.Detection.HomeCountries, want) {
		t.Errorf("HomeCountries = %v, want %v", cfg.Detection.HomeCountries, want)
	}

	headers := cfg.Notifiers.Webhook.HeaderMap()
	if headers["Authorization"] != "Bearer xyz" || headers["X-Tenant"] != "acme" {
		t.Errorf("HeaderMap() = %v", headers)
	}

	// Unset values keep their defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Detection.MonitorInterval != 5*time.Second {
		t.Errorf("MonitorInterval = %v, want 5s (default)", cfg.Detection.MonitorInterval)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	configContent := `
server:
  port: 8888
detection:
  monitor_interval: 10s
  home_countries:
    - India
    - Sri Lanka
checkpoint:
  backend: badger
  path: /var/lib/credguard/checkpoint
logging:
  level: warn
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 (from file)", cfg.Server.Port)
	}
	if cfg.Detection.MonitorInterval != 10*time.Second {
		t.Errorf("MonitorInterval = %v, want 10s (from file)", cfg.Detection.MonitorInterval)
	}
	if cfg.Checkpoint.Backend != CheckpointBadger {
		t.Errorf("Checkpoint.Backend = %q, want badger", cfg.Checkpoint.Backend)
	}
	if want := []string{"India", "Sri Lanka"}; !reflect.DeepEqual(cfg.Detection.HomeCountries, want) {
		t.Errorf("HomeCountries = %v, want %v", cfg.Detection.HomeCountries, want)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env override)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"postgres without dsn", map[string]string{"DB_DRIVER": "postgres"}, true},
		{"postgres with dsn", map[string]string{"DB_DRIVER": "postgres", "POSTGRES_DSN": "postgres://localhost/credguard"}, false},
		{"unknown driver", map[string]string{"DB_DRIVER": "sqlite"}, true},
		{"unknown checkpoint backend", map[string]string{"CHECKPOINT_BACKEND": "s3"}, true},
		{"database checkpoint", map[string]string{"CHECKPOINT_BACKEND": "database"}, false},
		{"redis dedup", map[string]string{"DEDUP_BACKEND": "redis", "REDIS_ADDR": "redis:6379"}, false},
		{"unknown dedup backend", map[string]string{"DEDUP_BACKEND": "memcached"}, true},
		{"kafka without brokers", map[string]string{"KAFKA_ENABLED": "true"}, true},
		{"webhook bad url", map[string]string{"WEBHOOK_ENABLED": "true", "WEBHOOK_URL": "ftp://x"}, true},
		{"zero interval", map[string]string{"MONITOR_INTERVAL": "0s"}, true},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, true},
		{"port out of range", map[string]string{"HTTP_PORT": "70000"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigPathEnvVar, "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			_, err := LoadWithKoanf()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadWithKoanf() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookHeaderMapIgnoresMalformed(t *testing.T) {
	w := WebhookNotifierConfig{Headers: []string{"X-A=1", "broken", "=novalue", " X-B = two "}}

	got := w.HeaderMap()
	want := map[string]string{"X-A": "1", "X-B": "two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderMap() = %v, want %v", got, want)
	}
}

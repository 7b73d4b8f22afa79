// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package main

import (
	"fmt"
	"io"

	"github.com/tomtom215/credguard/internal/config"
	"github.com/tomtom215/credguard/internal/detection"
	"github.com/tomtom215/credguard/internal/logging"
)

// detectionComponents are the detection collaborators shared by the API
// and the supervisor tree.
type detectionComponents struct {
	detector *detection.Detector
	monitor  *detection.Monitor
	fanout   *detection.NotifierFanout
	// sinks are the notifiers holding connections, closed after the fanout
	// has drained.
	sinks []io.Closer
}

// scoringConfig maps the detection settings onto the scorer thresholds.
// Zero values keep the defaults.
func scoringConfig(cfg config.DetectionConfig) detection.Config {
	sc := detection.DefaultConfig()
	if cfg.SuccessThreshold > 0 {
		sc.SuccessThreshold = cfg.SuccessThreshold
	}
	if cfg.TimeWindow > 0 {
		sc.TimeWindow = cfg.TimeWindow
	}
	if cfg.LocationAnomalyDistanceKm > 0 {
		sc.LocationAnomalyDistanceKm = cfg.LocationAnomalyDistanceKm
	}
	if cfg.LocationAnomalyTime > 0 {
		sc.LocationAnomalyTime = cfg.LocationAnomalyTime
	}
	return sc
}

func monitorConfig(cfg config.DetectionConfig) detection.MonitorConfig {
	mc := detection.DefaultMonitorConfig()
	if cfg.MonitorInterval > 0 {
		mc.Interval = cfg.MonitorInterval
	}
	if cfg.AlertCooldown > 0 {
		mc.Cooldown = cfg.AlertCooldown
	}
	if cfg.AlertThreshold > 0 {
		mc.AlertThreshold = cfg.AlertThreshold
	}
	if cfg.MonitorLookback > 0 {
		mc.Lookback = cfg.MonitorLookback
	}
	if cfg.QueryTimeout > 0 {
		mc.QueryTimeout = cfg.QueryTimeout
	}
	return mc
}

// initNotifiers builds the external alert notifiers enabled in cfg. A NATS
// connection failure is returned; the webhook and Kafka notifiers connect
// lazily.
func initNotifiers(cfg config.NotifiersConfig) ([]detection.Notifier, []io.Closer, error) {
	var (
		notifiers []detection.Notifier
		sinks     []io.Closer
	)

	if cfg.Webhook.Enabled && cfg.Webhook.URL != "" {
		notifiers = append(notifiers, detection.NewWebhookNotifier(detection.WebhookConfig{
			WebhookURL: cfg.Webhook.URL,
			Headers:    cfg.Webhook.HeaderMap(),
			Enabled:    true,
			RateLimit:  cfg.Webhook.RateLimit,
			Timeout:    cfg.Webhook.Timeout,
		}))
		logging.Info().
			Str("url", logging.SanitizeLogValue(cfg.Webhook.URL)).
			Dur("rate_limit", cfg.Webhook.RateLimit).
			Msg("Webhook notifier registered")
	}

	if cfg.Kafka.Enabled {
		kafkaNotifier := detection.NewKafkaNotifier(detection.KafkaConfig{
			Enabled:      true,
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		notifiers = append(notifiers, kafkaNotifier)
		sinks = append(sinks, kafkaNotifier)
		logging.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Kafka notifier registered")
	}

	if cfg.NATS.Enabled {
		natsNotifier, err := detection.NewNATSNotifier(detection.NATSConfig{
			Enabled:       true,
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, logging.NewWatermillAdapter("nats-notifier"))
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, nil, fmt.Errorf("nats notifier: %w", err)
		}
		notifiers = append(notifiers, natsNotifier)
		sinks = append(sinks, natsNotifier)
		logging.Info().
			Str("url", cfg.NATS.URL).
			Str("subject_prefix", cfg.NATS.SubjectPrefix).
			Msg("NATS notifier registered")
	}

	return notifiers, sinks, nil
}

// initDetection wires the scorer, the on-demand detector and the
// continuous monitor. Alerts go to the websocket hub first and then to
// every configured notifier.
func initDetection(cfg *config.Config, events detection.EventStore, checkpoints detection.CheckpointStore,
	dedup detection.DedupStore, hub detection.AlertPublisher) (*detectionComponents, error) {
	narrator := detection.NewTemplateNarrator(cfg.Detection.HomeCountries)
	scorer := detection.NewScorer(scoringConfig(cfg.Detection), narrator, cfg.Detection.NarrativeTimeout)

	notifiers, sinks, err := initNotifiers(cfg.Notifiers)
	if err != nil {
		return nil, err
	}
	fanout := detection.NewNotifierFanout(detection.DefaultFanoutConfig(), notifiers...)

	mc := monitorConfig(cfg.Detection)
	monitor := detection.NewMonitor(mc, scorer, events, checkpoints, dedup, hub,
		detection.WithNotifiers(fanout))

	logging.Info().
		Int("success_threshold", scoringConfig(cfg.Detection).SuccessThreshold).
		Dur("monitor_interval", mc.Interval).
		Dur("alert_cooldown", mc.Cooldown).
		Int("alert_threshold", mc.AlertThreshold).
		Int("notifiers", len(notifiers)).
		Msg("Detection initialized")

	return &detectionComponents{
		detector: detection.NewDetector(scorer, events, cfg.Detection.QueryTimeout),
		monitor:  monitor,
		fanout:   fanout,
		sinks:    sinks,
	}, nil
}

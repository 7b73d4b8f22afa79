// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the subset of *kafka.Writer used by KafkaNotifier.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka alert stream.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// KafkaNotifier appends alerts to a Kafka topic keyed by tenant, so all
// alerts of one tenant land on the same partition in order.
type KafkaNotifier struct {
	writer  KafkaWriter
	enabled bool
}

// NewKafkaNotifier creates a notifier backed by a synchronous kafka-go writer.
func NewKafkaNotifier(cfg KafkaConfig) *KafkaNotifier {
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
		WriteTimeout:           writeTimeout,
	}
	return NewKafkaNotifierWithWriter(w, cfg.Enabled && len(cfg.Brokers) > 0 && cfg.Topic != "")
}

// NewKafkaNotifierWithWriter creates a notifier over an existing writer.
func NewKafkaNotifierWithWriter(w KafkaWriter, enabled bool) *KafkaNotifier {
	return &KafkaNotifier{writer: w, enabled: enabled}
}

// Name returns the notifier name.
func (n *KafkaNotifier) Name() string {
	return "kafka"
}

// Enabled returns whether this notifier is enabled.
func (n *KafkaNotifier) Enabled() bool {
	return n.enabled
}

// Send writes the alert as one JSON message.
func (n *KafkaNotifier) Send(ctx context.Context, alert *AlertMessage) error {
	if !n.enabled {
		return nil
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal kafka alert: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.TenantKey),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "alert_id", Value: []byte(alert.AlertID)},
			{Key: "category", Value: []byte(alert.Category)},
		},
	})
	if err != nil {
		return fmt.Errorf("write kafka alert: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

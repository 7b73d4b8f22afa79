// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS alert bus.
type NATSConfig struct {
	Enabled       bool
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSNotifier publishes alerts on "<prefix>.<tenant>" through a watermill
// publisher. Core NATS is used; no JetStream stream is required.
type NATSNotifier struct {
	publisher message.Publisher
	prefix    string
	enabled   bool
}

// NewNATSNotifier dials NATS and creates the notifier.
func NewNATSNotifier(cfg NATSConfig, logger watermill.LoggerAdapter) (*NATSNotifier, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled: true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return NewNATSNotifierWithPublisher(pub, cfg.SubjectPrefix, cfg.Enabled), nil
}

// NewNATSNotifierWithPublisher creates a notifier over any watermill
// publisher.
func NewNATSNotifierWithPublisher(pub message.Publisher, prefix string, enabled bool) *NATSNotifier {
	return &NATSNotifier{publisher: pub, prefix: prefix, enabled: enabled}
}

// Name returns the notifier name.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled returns whether this notifier is enabled.
func (n *NATSNotifier) Enabled() bool {
	return n.enabled
}

// Topic returns the subject an alert for tenant is published on.
func (n *NATSNotifier) Topic(tenant string) string {
	return n.prefix + "." + tenant
}

// Send publishes the alert. The watermill message UUID is the alert ID.
func (n *NATSNotifier) Send(ctx context.Context, alert *AlertMessage) error {
	if !n.enabled {
		return nil
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal nats alert: %w", err)
	}

	msg := message.NewMessage(alert.AlertID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("tenant", alert.TenantKey)
	msg.Metadata.Set("category", alert.Category)

	if err := n.publisher.Publish(n.Topic(alert.TenantKey), msg); err != nil {
		return fmt.Errorf("publish nats alert: %w", err)
	}
	return nil
}

// Close closes the underlying publisher.
func (n *NATSNotifier) Close() error {
	return n.publisher.Close()
}

// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

package websocket

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/credguard/internal/logging"
)

var (
	// ErrClientClosed is returned when sending to a closed client.
	ErrClientClosed = errors.New("websocket client closed")
	// ErrSendBufferFull is returned when a client is not draining its queue.
	ErrSendBufferFull = errors.New("websocket send buffer full")
)

// clientIDCounter generates unique, monotonically increasing IDs for clients
// so publish order is stable.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id    uint64
	hub   *Hub
	conn  *websocket.Conn
	group string
	cfg   Config

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// NewClient creates a client for conn that will belong to group.
func NewClient(hub *Hub, conn *websocket.Conn, group string) *Client {
	cfg := hub.Config()
	return &Client{
		id:    clientIDCounter.Add(1),
		hub:   hub,
		conn:  conn,
		group: group,
		cfg:   cfg,
		send:  make(chan []byte, cfg.SendBuffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Group returns the group key the client subscribed to.
func (c *Client) Group() string {
	return c.group
}

// Send implements Subscriber.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close implements Subscriber. The write pump sends a close frame and exits.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// isKeepAlive reports whether a client frame is the text keep-alive.
func isKeepAlive(messageType int, data []byte) bool {
	return messageType == websocket.TextMessage && strings.EqualFold(strings.TrimSpace(string(data)), "ping")
}

// readPump drains client frames until the connection fails, then leaves the
// group. Clients have nothing to say beyond keep-alives, so frames are
// discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unsubscribe(c, c.group)
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}
		if isKeepAlive(messageType, data) {
			continue
		}
		logging.Debug().Uint64("client_id", c.id).Int("bytes", len(data)).Msg("ignoring websocket client frame")
	}
}

// writePump writes queued alerts and protocol pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker((c.cfg.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

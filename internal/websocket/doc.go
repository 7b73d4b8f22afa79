// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package websocket delivers alerts to live operator connections grouped by
tenant key.

Key Components:

  - Hub: registry of subscribers per group with concurrency-safe
    Subscribe, Unsubscribe and Publish
  - Client: a gorilla/websocket connection with a buffered send queue and
    its own read and write goroutines
  - Subscriber: the interface the hub delivers to; Client implements it

Architecture:

	┌──────────────┐
	│     Hub      │  groups: tenant key → subscribers
	└──────┬───────┘
	       │ Publish(tenant, alert) marshals once, snapshots members
	┌──────┴───────┬──────────────┐
	│   Client A   │   Client B   │  per-client send queue
	└──────────────┴──────────────┘

Publish takes the registry lock only long enough to copy the member list.
Delivery to each member is a non-blocking enqueue; a full queue or a closed
client drops that message for that member only and is counted in
credguard_websocket_publish_failures_total. Broken connections leave the hub
through their own read loop, never through Publish.

Each client runs two goroutines:
  - readPump: consumes client frames, ignoring text "ping" keep-alives, and
    unsubscribes on error or close
  - writePump: writes queued frames and protocol pings

Usage Example:

	hub := websocket.NewHub(websocket.DefaultConfig())
	tree.AddMessagingService(services.NewWebSocketHubService(hub))

	// in the HTTP handler
	client := websocket.NewClient(hub, conn, groupKey)
	hub.Subscribe(client, groupKey)
	client.Start()

	// from the monitor
	_ = hub.Publish("tenant-a", alert)
*/
package websocket

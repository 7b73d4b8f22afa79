// CredGuard - Credential Stuffing Detection and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/credguard

/*
Package cache provides the bounded caches used by the alerting path.

# LRU Cache

LRUCache is a generic, thread-safe LRU with lazy TTL expiration and an
optional background sweep. It backs the in-memory alert dedup store and the
GeoIP lookup cache:

	c := cache.NewLRUCache[time.Time](10000, 10*time.Minute)
	stop := c.StartCleanup(time.Minute)
	defer stop()
	c.Add("tenant-a|alice|203.0.113.7", time.Now())
	last, ok := c.Get("tenant-a|alice|203.0.113.7")

# Alert Dedup Stores

The continuous monitor suppresses a repeat alert for the same (tenant, user,
ip) while the cooldown is running. Two stores implement detection.DedupStore:

  - MemoryDedupStore: in-process LRU, lost on restart
  - RedisDedupStore: survives restarts, keys expire via Redis TTL

Both keep a record for at least one full cooldown (evict_after_cooldowns
multiples of it), so expiry never shortens a cooldown.

# Thread Safety

All types in this package are safe for concurrent use.
*/
package cache

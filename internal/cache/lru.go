// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package cache provides the bounded, TTL-expiring key set used to recognize
// GitHub redeliveries by their X-GitHub-Delivery GUID.
package cache

import (
	"sync"
	"time"
)

// Defaults applied by NewDeliveryCache for non-positive arguments.
const (
	DefaultCapacity = 10000
	DefaultTTL      = time.Hour
)

type entry struct {
	key       string
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// DeliveryCache remembers recently seen delivery IDs.
//
// Entries are kept in a doubly-linked list ordered by insertion time with a
// map for O(1) lookup. When capacity is reached the oldest entry is evicted;
// expired entries are dropped lazily on lookup and by Sweep.
type DeliveryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*entry

	// head.next is the newest entry, tail.prev the oldest.
	head *entry
	tail *entry

	duplicates int64
}

// NewDeliveryCache creates a cache holding at most capacity IDs for ttl.
func NewDeliveryCache(capacity int, ttl time.Duration) *DeliveryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &DeliveryCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*entry),
		head:     &entry{},
		tail:     &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Seen reports whether id was recorded within the TTL. An unseen id is
// recorded, so of two concurrent calls with the same id exactly one gets false.
// The empty id is never recorded and never seen.
func (c *DeliveryCache) Seen(id string) bool {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.items[id]; ok {
		if now.Before(e.expiresAt) {
			c.duplicates++
			return true
		}
		c.remove(e)
	}

	for len(c.items) >= c.capacity {
		c.remove(c.tail.prev)
	}

	e := &entry{key: id, expiresAt: now.Add(c.ttl)}
	c.pushFront(e)
	c.items[id] = e
	return false
}

// Sweep drops expired entries and returns how many were removed.
func (c *DeliveryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	// Oldest entries expire first.
	for e := c.tail.prev; e != c.head && !now.Before(e.expiresAt); e = c.tail.prev {
		c.remove(e)
		removed++
	}
	return removed
}

// Len returns the number of IDs held, including expired ones not yet swept.
func (c *DeliveryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Duplicates returns how many times Seen has returned true.
func (c *DeliveryCache) Duplicates() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duplicates
}

func (c *DeliveryCache) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *DeliveryCache) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	delete(c.items, e.key)
}

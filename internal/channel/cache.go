package channel

import (
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultRecentEventCacheSize bounds how many non-protocol events a single
// channel retains for RecentEvents(). Grounded on SPEC_FULL.md's domain-
// stack wiring of github.com/hashicorp/golang-lru, the same bounded-cache
// library the teacher uses in internal/subscription/dedup.go — there it
// bounds a dedup window, here it bounds a per-channel replay buffer so a
// listener bound just after a reconnect-triggered resubscribe can recover
// the events it would otherwise have missed, without the channel's event
// history growing without limit across a long-lived subscription.
const defaultRecentEventCacheSize = 64

// RecentEvent is one entry in a channel's recent-event buffer.
type RecentEvent struct {
	EventName string
	Data      json.RawMessage
}

// recentEventCache is a fixed-capacity FIFO of RecentEvent, backed by an
// LRU cache keyed by a monotonic sequence number so the oldest entry is
// always the one evicted once the cache is full.
type recentEventCache struct {
	mu   sync.Mutex
	lru  *lru.Cache[uint64, RecentEvent]
	next uint64
}

func newRecentEventCache(size int) *recentEventCache {
	c, err := lru.New[uint64, RecentEvent](size)
	if err != nil {
		// size is a positive compile-time constant; lru.New only errors
		// on size <= 0.
		panic(err)
	}
	return &recentEventCache{lru: c}
}

func (c *recentEventCache) record(eventName string, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(c.next, RecentEvent{EventName: eventName, Data: data})
	c.next++
}

func (c *recentEventCache) snapshot() []RecentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.lru.Keys()
	out := make([]RecentEvent, 0, len(keys))
	for _, k := range keys {
		if v, ok := c.lru.Peek(k); ok {
			out = append(out, v)
		}
	}
	return out
}

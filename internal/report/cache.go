package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small bounded in-process store for assembled reports. Entries
// expire after a fixed TTL, checked on read; when full, the oldest insertion
// is evicted. It deliberately stays in-process and non-durable — Redis is
// only used to signal invalidation after a storefront sync, never to hold
// report payloads.
type Cache struct {
	ttl time.Duration
	max int

	mu      sync.Mutex
	entries map[string]cacheEntry
	order   []string
}

type cacheEntry struct {
	report   *Report
	storedAt time.Time
}

// NewCache constructs a cache with the given TTL and maximum entry count.
func NewCache(ttl time.Duration, max int) *Cache {
	if max <= 0 {
		max = 16
	}
	return &Cache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]cacheEntry, max),
	}
}

// CacheKey composes the canonical cache key for a report kind and period.
func CacheKey(unit PeriodUnit, year, index int) string {
	return fmt.Sprintf("%s-%d-%d", unit, year, index)
}

// Get returns the cached report when present and fresh. Stale entries are
// evicted and reported as a miss.
func (c *Cache) Get(key string) (*Report, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		c.remove(key)
		return nil, false
	}
	return entry.report, true
}

// Set stores a report, evicting the oldest insertion when the cache is full.
func (c *Cache) Set(key string, rep *Report) {
	if c == nil || rep == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}
	if len(c.entries) >= c.max && len(c.order) > 0 {
		c.remove(c.order[0])
	}
	c.entries[key] = cacheEntry{report: rep, storedAt: time.Now()}
	c.order = append(c.order, key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry, c.max)
	c.order = nil
	c.mu.Unlock()
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ListenForInvalidation subscribes to the storefront sync bump channel and
// clears the cache whenever a sync completes. The subscription ends with the
// context.
func (c *Cache) ListenForInvalidation(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger) {
	if c == nil || client == nil || channel == "" {
		return
	}
	pubsub := client.Subscribe(ctx, channel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				c.Clear()
				if logger != nil {
					logger.Info("report cache cleared", slog.String("channel", channel), slog.String("payload", msg.Payload))
				}
			}
		}
	}()
}

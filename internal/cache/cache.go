// Package cache memoizes finished dashboard payloads by input content.
// Keys are derived from the full input bytes plus the render parameters,
// never from object identity, so identical uploads under different names
// share an entry and an unchanged re-render never goes stale.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"salesdash/internal/dashboard"
)

// Entry represents a cached render result
type Entry struct {
	Payload   *dashboard.Payload
	CachedAt  time.Time
	ExpiresAt time.Time
	HitCount  int
}

// Stats reports cache effectiveness counters
type Stats struct {
	Entries   int   `json:"entries"`
	HitCount  int64 `json:"hit_count"`
	MissCount int64 `json:"miss_count"`
}

// RenderCache is a TTL-bounded memoization layer for render cycles
type RenderCache struct {
	entries   map[string]Entry
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// NewRenderCache creates a render cache and starts its sweep goroutine
func NewRenderCache(ttl time.Duration, maxSize int) *RenderCache {
	c := &RenderCache{
		entries:  make(map[string]Entry),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Key derives the cache key from the raw input content and the render
// parameters. Two renders share a key only when the bytes, the declared
// format and the target all match; the same bytes labelled as a different
// format parse differently and must not collide.
func Key(content []byte, format string, target float64) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(format))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(target, 'g', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached payload
func (c *RenderCache) Get(key string) (*dashboard.Payload, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.Payload, true
}

// Set stores a payload in the cache
func (c *RenderCache) Set(key string, payload *dashboard.Payload) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	c.entries[key] = Entry{
		Payload:   payload,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
}

// Invalidate removes an entry from the cache
func (c *RenderCache) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// GetStats returns cache statistics
func (c *RenderCache) GetStats() Stats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return Stats{
		Entries:   len(c.entries),
		HitCount:  c.hitCount,
		MissCount: c.missCount,
	}
}

// Close stops the background sweep goroutine
func (c *RenderCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

// evictOldest removes the entry with the oldest CachedAt. Caller holds the lock.
func (c *RenderCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CachedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// cleanup periodically removes expired entries
func (c *RenderCache) cleanup() {
	interval := c.ttl
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopChan:
			return
		}
	}
}

func (c *RenderCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

package reddit

import (
	"sync"
	"time"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
)

const defaultCacheTTL = 5 * time.Minute

// Cache stores enrichment results keyed by canonical post URL.
type Cache interface {
	Get(key string, now time.Time) (*domain.EnrichedPost, bool)
	Put(key string, post *domain.EnrichedPost, now time.Time)
}

type cacheEntry struct {
	post    *domain.EnrichedPost
	created time.Time
}

// MemoryCache is a process-local Cache. An entry is fresh while
// now - created < ttl; stale entries stay until Prune or overwrite.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryCache) Get(key string, now time.Time) (*domain.EnrichedPost, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || now.Sub(e.created) >= c.ttl {
		return nil, false
	}

	return e.post, true
}

func (c *MemoryCache) Put(key string, post *domain.EnrichedPost, now time.Time) {
	if post == nil {
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{post: post, created: now}
	c.mu.Unlock()
}

// Prune drops stale entries and returns how many were removed.
func (c *MemoryCache) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for k, e := range c.entries {
		if now.Sub(e.created) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}

	return removed
}

// Len returns the number of entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

package memory

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Entries   int    `json:"entries"`
	Evictions uint64 `json:"evictions"`
}

type entry struct {
	value     interface{}
	createdAt time.Time
	expiresAt time.Time
}

// Cache is a bounded in-memory TTL cache. Expired entries are never
// returned; when full, expired entries are swept first and the oldest entry
// is evicted if the sweep freed nothing.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	hits       uint64
	misses     uint64
	evictions  uint64
	now        func() time.Time
	logger     *zap.Logger
}

func New(maxEntries int, logger *zap.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     logger,
	}
}

// Get returns the live value for key, or (nil, false) on a miss or an
// expired entry.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		c.logger.Debug("cache entry expired", zap.String("key", key))
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl stores nothing.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.sweepExpiredLocked()
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}

	now := c.now()
	c.entries[key] = entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.logger.Debug("cache cleared")
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepExpiredLocked()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Entries:   len(c.entries),
		Evictions: c.evictions,
	}
}

func (c *Cache) sweepExpiredLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			c.evictions++
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.createdAt.Before(oldest) {
			oldestKey, oldest = k, e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
		c.logger.Debug("evicted oldest cache entry", zap.String("key", oldestKey))
	}
}

// Package cache implements the bounded TTL + LRU store used to memoize
// rule matching and intent resolution.
package cache

// #region imports
import (
	"sync"
	"time"
)

// #endregion

// #region config

// Config holds cache sizing and expiry settings.
type Config struct {
	Capacity      int           // max entries before LRU eviction
	TTL           time.Duration // entry lifetime
	SweepInterval time.Duration // background cleanup period; 0 disables the sweep
}

// DefaultConfig returns the sizing used by the rule engine.
func DefaultConfig() Config {
	return Config{
		Capacity:      128,
		TTL:           5 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// #endregion

// #region entry

type entry struct {
	value      interface{}
	insertedAt time.Time
	lastHit    time.Time
	hitCount   int
}

// #endregion

// #region cache-struct

// Cache is a mutex-guarded key→value store with TTL expiry and
// least-hit-count eviction. Matching calls may race with the sweep
// goroutine, so every access holds the lock.
type Cache struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*entry
	now     func() time.Time // injectable clock for tests
	done    chan struct{}
	once    sync.Once
}

// New creates a cache and starts the background sweep when configured.
func New(cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	c := &Cache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if cfg.SweepInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

// #endregion

// #region get-put

// Get returns the cached value and bumps its hit count.
// Expired entries are removed on read.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if c.cfg.TTL > 0 && now.Sub(e.insertedAt) >= c.cfg.TTL {
		delete(c.entries, key)
		return nil, false
	}
	e.hitCount++
	e.lastHit = now
	return e.value, true
}

// Put inserts or replaces a value, evicting one victim if over capacity.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.insertedAt = now
		return
	}
	if len(c.entries) >= c.cfg.Capacity {
		c.evictLocked()
	}
	c.entries[key] = &entry{value: value, insertedAt: now, lastHit: now}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// #endregion

// #region eviction

// evictLocked removes exactly one entry: the least-hit one, oldest on tie.
// Caller holds the lock.
func (c *Cache) evictLocked() {
	var victim string
	var victimEntry *entry
	for k, e := range c.entries {
		if victimEntry == nil {
			victim, victimEntry = k, e
			continue
		}
		if e.hitCount < victimEntry.hitCount ||
			(e.hitCount == victimEntry.hitCount && e.insertedAt.Before(victimEntry.insertedAt)) {
			victim, victimEntry = k, e
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
	}
}

// #endregion

// #region sweep

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.done:
			return
		}
	}
}

// Sweep removes every entry older than the TTL.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.TTL <= 0 {
		return
	}
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.cfg.TTL {
			delete(c.entries, k)
		}
	}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

// #endregion

// Package cache provides the in-memory read-through cache used by the store.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	DefaultTTL      time.Duration // TTL for entries (default: 10 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 5 minutes)
	MaxItems        int           // Maximum number of entries (default: 1000)
	OnEviction      func(key string, value any)
}

// Cache is an LRU cache with TTL support.
type Cache struct {
	config Config

	mu    sync.Mutex
	items map[string]*entry
	order *list.List // doubly linked list for LRU ordering

	stop chan struct{}
	wg   sync.WaitGroup
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	element   *list.Element
}

// New creates a new cache and starts its background cleanup loop.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}

	c := &Cache{
		config: config,
		items:  make(map[string]*entry),
		order:  list.New(),
		stop:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.removeEntry(e)
		return nil, false
	}

	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores a value in the cache under the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value in the cache with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.items) >= c.config.MaxItems {
		c.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.items[key] = e
}

// Delete removes an entry from the cache. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.removeEntry(e)
	}
}

// Size returns the number of entries in the cache.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	select {
	case <-c.stop:
		// Already closed
	default:
		close(c.stop)
	}
	c.wg.Wait()
}

// cleanupLoop periodically removes expired entries.
func (c *Cache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanupExpired()
		}
	}
}

func (c *Cache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Collect first to avoid mutating the map mid-iteration.
	var expired []*entry
	now := time.Now()
	for _, e := range c.items {
		if now.After(e.expiresAt) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.removeEntry(e)
	}
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.removeEntry(oldest.Value.(*entry))
}

// removeEntry removes an entry from the cache.
// Must be called with lock held.
func (c *Cache) removeEntry(e *entry) {
	c.order.Remove(e.element)
	delete(c.items, e.key)
	if c.config.OnEviction != nil {
		c.config.OnEviction(e.key, e.value)
	}
}

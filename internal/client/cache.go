package client

import "sync"

// Cache holds data fetched on behalf of the signed-in user. It is purged on
// logout so nothing survives into the next session.
type Cache struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]any)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

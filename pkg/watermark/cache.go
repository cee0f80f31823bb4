package watermark

import (
	"strings"
	"sync"
)

// Cache holds rendered watermark PNGs. Eviction is first-in first-out:
// the badge for a given user rarely changes, so recency tracking buys
// nothing over insertion order.
type Cache struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string][]byte
}

// NewCache creates a cache that holds at most limit entries.
// A limit of zero or less disables caching entirely.
func NewCache(limit int) *Cache {
	return &Cache{
		limit:   limit,
		entries: make(map[string][]byte),
	}
}

// Key builds the cache key for a logo source and username. Usernames
// are case-insensitive, so the key folds case and trims whitespace.
func Key(logoSource, username string) string {
	return logoSource + "::" + strings.ToLower(strings.TrimSpace(username))
}

// Get returns the cached PNG for a key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	png, ok := c.entries[key]
	return png, ok
}

// Put stores a rendered PNG, evicting the oldest entry when full.
// Storing an existing key replaces the bytes without changing its age.
func (c *Cache) Put(key string, png []byte) {
	if c.limit <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = png
		return
	}

	for len(c.entries) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = png
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

package watcher

import "sync"

// LanguageCache remembers language identifiers the host rejected so they
// are not tried again. It only grows and is safe for concurrent use.
type LanguageCache struct {
	mu     sync.RWMutex
	failed map[string]struct{}
	order  []string
}

// NewLanguageCache creates an empty cache.
func NewLanguageCache() *LanguageCache {
	return &LanguageCache{failed: make(map[string]struct{})}
}

// Add records a failed identifier.
func (c *LanguageCache) Add(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.failed[id]; ok {
		return
	}
	c.failed[id] = struct{}{}
	c.order = append(c.order, id)
}

// Failed reports whether id was recorded.
func (c *LanguageCache) Failed(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.failed[id]
	return ok
}

// List returns the recorded identifiers in insertion order.
func (c *LanguageCache) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of recorded identifiers.
func (c *LanguageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Package source implements the compiled-module cache (spec.md §3.5,
// §4.5): resolved absolute URLs mapped to engine-specific compiled
// module handles, persisted across Run calls within one isolate and
// invalidated on an explicit source override or on any Dispose.
package source

import "sync"

// Cache maps resolved URL strings to opaque, engine-specific compiled
// handles. It is deliberately engine-agnostic -- only pkg/sandbox knows
// the concrete handle type (an engine.Module).
type Cache struct {
	mu      sync.Mutex
	entries map[string]any
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Lookup returns the handle stored for url, if any.
func (c *Cache) Lookup(url string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[url]
	return h, ok
}

// Store installs handle for url, overwriting any previous entry. Callers
// overriding an existing entry are responsible for releasing the old
// handle first (spec.md §4.5 "the old handle is released and replaced").
func (c *Cache) Store(url string, handle any) {
	c.mu.Lock()
	c.entries[url] = handle
	c.mu.Unlock()
}

// Invalidate removes and returns the entry for url, if any, so the
// caller can release the underlying handle.
func (c *Cache) Invalidate(url string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[url]
	delete(c.entries, url)
	return h, ok
}

// Clear empties the cache, returning the removed entries so the caller
// can release every underlying handle (spec.md §4.5, dispose path).
func (c *Cache) Clear() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.entries
	c.entries = make(map[string]any)
	return old
}

// Len reports how many URLs currently have a cached entry.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

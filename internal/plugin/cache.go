package plugin

import (
	"sync"

	"github.com/software-center/catalog/internal/app"
)

// Cache is a plugin's private App store, keyed by unique_id with a
// secondary desktop-id index (spec.md §4.3). Single-writer (the owning
// plugin) / multi-reader: reads take a short lock, writes replace the
// cached entry atomically (spec.md §5). The secondary index reproduces
// gs-appstream.c's two-key create_app cache probe (SPEC_FULL.md §5.1):
// before a unique_id is known, a plugin may still recognize a component
// it already cached under its desktop-id.
type Cache struct {
	mu          sync.RWMutex
	byID        map[string]*app.App
	byDesktopID map[string]*app.App
}

// NewCache returns an empty per-plugin App cache.
func NewCache() *Cache {
	return &Cache{byID: make(map[string]*app.App), byDesktopID: make(map[string]*app.App)}
}

// Lookup returns the cached App for uniqueID, if present.
func (c *Cache) Lookup(uniqueID string) (*app.App, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[uniqueID]
	return a, ok
}

// LookupByDesktopID returns the cached App previously indexed under
// desktopID via AddWithDesktopID, if present. A blank desktopID never
// matches.
func (c *Cache) LookupByDesktopID(desktopID string) (*app.App, bool) {
	if desktopID == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byDesktopID[desktopID]
	return a, ok
}

// Add inserts or replaces the cached entry for a's unique_id. A blank
// unique_id is never cached (this is how create_app avoids caching
// wildcard placeholders, spec.md §4.1).
func (c *Cache) Add(a *app.App) {
	c.AddWithDesktopID(a, "")
}

// AddWithDesktopID is Add plus a secondary desktop-id index entry, used by
// the AppStream Engine's create_app two-key cache probe.
func (c *Cache) AddWithDesktopID(a *app.App, desktopID string) {
	uid := a.UniqueID()
	if uid == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[uid] = a
	if desktopID != "" {
		c.byDesktopID[desktopID] = a
	}
}

// Remove evicts uniqueID from the cache, along with any desktop-id alias
// pointing at the same App.
func (c *Cache) Remove(uniqueID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byID[uniqueID]
	delete(c.byID, uniqueID)
	if !ok {
		return
	}
	for k, v := range c.byDesktopID {
		if v == a {
			delete(c.byDesktopID, k)
		}
	}
}

// LookupByState returns every cached App currently in state s.
func (c *Cache) LookupByState(s app.State) []*app.App {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*app.App
	for _, a := range c.byID {
		if a.State() == s {
			out = append(out, a)
		}
	}
	return out
}

// Invalidate clears the entire cache, forcing the next create_app for any
// App to rebuild it from the silo.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = make(map[string]*app.App)
	c.byDesktopID = make(map[string]*app.App)
}

// Len reports the number of cached Apps.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

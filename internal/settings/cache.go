package settings

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/singleflight"
)

var log = commonlog.GetLogger("proseflow.settings")

// Fetcher obtains the settings for one scope from the client.
type Fetcher func(ctx context.Context, scope string) (Settings, error)

// Cache resolves per-scope settings with at most one client fetch in flight
// per scope. Until Scoped is enabled the client cannot answer per-scope
// queries, and a single global record stands in for every scope.
type Cache struct {
	mu      sync.RWMutex
	scoped  bool
	global  Settings
	entries map[string]Settings

	group singleflight.Group
}

// NewCache creates a cache serving the global defaults for every scope.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Settings),
	}
}

// SetScoped records whether the client supports scoped configuration
// queries. Decided once, from the capabilities in the initialize request.
func (c *Cache) SetScoped(scoped bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoped = scoped
}

// Scoped reports whether per-scope queries are in use.
func (c *Cache) Scoped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scoped
}

// Get returns the settings for scope. Cache misses trigger one fetch through
// fetch; concurrent misses for the same scope share that single fetch. A
// failed fetch logs, returns the defaults, and caches nothing, so the next
// lookup tries again.
func (c *Cache) Get(ctx context.Context, scope string, fetch Fetcher) Settings {
	c.mu.RLock()
	if !c.scoped {
		global := c.global
		c.mu.RUnlock()
		return global
	}
	if s, ok := c.entries[scope]; ok {
		c.mu.RUnlock()
		return s
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(scope, func() (any, error) {
		// Double-check inside singleflight
		c.mu.RLock()
		s, ok := c.entries[scope]
		c.mu.RUnlock()
		if ok {
			return s, nil
		}

		s, err := fetch(ctx, scope)
		if err != nil {
			return Settings{}, err
		}

		c.mu.Lock()
		c.entries[scope] = s
		c.mu.Unlock()

		return s, nil
	})
	if err != nil {
		log.Warningf("configuration fetch for %s failed: %s", scope, err)
		return Settings{}
	}

	return v.(Settings)
}

// Invalidate drops every scoped entry. Used when a configuration-capable
// client announces that configuration changed; affected scopes re-fetch on
// their next lookup.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Settings)
}

// Evict drops the entry for one scope, typically because its document
// closed. A later reopen fetches fresh settings.
func (c *Cache) Evict(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, scope)
}

// SetGlobal overwrites the global record. This is the only mutation path
// for clients without scoped configuration: their change notifications
// carry the new settings inline.
func (c *Cache) SetGlobal(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.global = s
}

// Global returns the global record.
func (c *Cache) Global() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.global
}

package cache

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

// DefaultTTL is how long a search result stays readable.
const DefaultTTL = 900 * time.Second

// Entry is a cached envelope and the time it was stored.
type Entry struct {
	Key        string               `json:"key"`
	Envelope   types.ResultEnvelope `json:"envelope"`
	InsertedAt time.Time            `json:"inserted_at"`
}

// fresh reports whether the entry is still readable at now.
func (e Entry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.InsertedAt) < ttl
}

// Key derives a cache key from a provider name and named request
// parameters. Parameters are sorted by name so call-site ordering never
// matters.
func Key(provider string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(provider)
	for _, name := range slices.Sorted(maps.Keys(params)) {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithSweepInterval sets how often expired entries are dropped. Zero or
// negative disables the background sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.sweepEvery = d
	}
}

// Cache is an in-memory TTL store of search envelopes.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	now        func() time.Time
	sweepEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// NewCache creates a new Cache with the specified TTL.
func NewCache(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		now:        time.Now,
		sweepEvery: time.Minute,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sweepEvery > 0 {
		go c.cleanup()
	}

	return c
}

// Close stops the background cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the entry for key. Expired entries are reported as
// absent, exactly like keys that were never stored.
func (c *Cache) Get(_ context.Context, key string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.fresh(c.now(), c.ttl) {
		return Entry{}, false
	}
	entry.Envelope = entry.Envelope.Clone()
	return entry, true
}

// Put stores a copy of env under key, replacing any previous entry.
func (c *Cache) Put(_ context.Context, key string, env types.ResultEnvelope) {
	entry := Entry{
		Key:        key,
		Envelope:   env.Clone(),
		InsertedAt: c.now(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Invalidate removes a specific key from the cache.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones that
// have not been swept yet.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep drops expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !entry.fresh(now, c.ttl) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// cleanup periodically removes expired entries.
func (c *Cache) cleanup() {
	ticker := time.NewTicker(c.sweepEvery)
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

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMaxEntries = 10_000

// entry is one stored value; it lives in the insertion list.
type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used when no Redis is configured.
// In bounded mode the oldest inserted entry is evicted first.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently inserted
	maxEntries int        // 0 or negative = unbounded
	now        func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMaxEntries bounds the number of stored entries.
func WithMaxEntries(n int) MemoryOption {
	return func(c *MemoryCache) {
		c.maxEntries = n
	}
}

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory creates a MemoryCache.
func NewMemory(opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a live entry. Expired entries are removed on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry) //nolint:forcetypeassert // list only holds *entry
	if !c.now().Before(e.expiresAt) {
		c.remove(el)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

// Set stores a copy of value. Replacing a key moves it to the front.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{
		key:       key,
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// Len returns the number of stored entries, including expired ones not yet collected.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove unlinks el. Must be called with c.mu held.
func (c *MemoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry) //nolint:forcetypeassert // list only holds *entry
	delete(c.entries, e.key)
}

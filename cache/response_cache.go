// Package cache memoizes final synthesized answers keyed by session id,
// upstream data version and normalized query. A data version bump silently
// orphans stale entries: their keys can never match again, so they age out
// through the capacity bound instead of being deleted explicitly.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
)

const (
	// DefaultCapacity bounds the number of live entries.
	DefaultCapacity = 1000
	// DefaultTTL is the entry lifetime used when Put receives ttl <= 0.
	DefaultTTL = 300 * time.Second
)

// Options holds configuration overrides passed to New.
type Options struct {
	Capacity int
	TTL      time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry struct {
	key       string
	value     string
	expiresAt time.Time
}

// ResponseCache is a capacity-bounded TTL cache for final responses. Safe
// for concurrent use; eviction removes the oldest inserted entries first,
// independent of TTL expiry.
type ResponseCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = oldest insertion
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New constructs a ResponseCache with optional overrides.
func New(optFns ...func(o *Options)) *ResponseCache {
	opts := Options{
		Capacity: DefaultCapacity,
		TTL:      DefaultTTL,
		Now:      time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ResponseCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: opts.Capacity,
		ttl:      opts.TTL,
		now:      opts.Now,
	}
}

// Key derives the deterministic cache key for the triple. The dataVersion
// component ties an entry to the upstream data it was produced from.
func Key(sessionID string, dataVersion int64, normalizedQuery string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%s", sessionID, dataVersion, normalizedQuery))
	return hex.EncodeToString(sum[:])
}

// NormalizeQuery canonicalizes a user message for cache keying: lowercased,
// whitespace collapsed, trailing punctuation stripped.
func NormalizeQuery(query string) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return strings.TrimRightFunc(q, func(r rune) bool {
		return unicode.IsPunct(r)
	})
}

// Get returns the cached response for the triple, if present and fresh.
func (c *ResponseCache) Get(sessionID string, dataVersion int64, normalizedQuery string) (string, bool) {
	key := Key(sessionID, dataVersion, normalizedQuery)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	e := el.Value.(*entry)
	if c.now().After(e.expiresAt) {
		c.removeLocked(el)
		return "", false
	}
	return e.value, true
}

// Put stores a response for the triple. A ttl <= 0 selects the default.
// Re-putting an existing key refreshes its value and expiry but keeps its
// insertion position.
func (c *ResponseCache) Put(sessionID string, dataVersion int64, normalizedQuery, response string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	key := Key(sessionID, dataVersion, normalizedQuery)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = response
		e.expiresAt = c.now().Add(ttl)
		return
	}

	el := c.order.PushBack(&entry{key: key, value: response, expiresAt: c.now().Add(ttl)})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		c.removeLocked(c.order.Front())
	}
}

// Len returns the number of live entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// removeLocked must be called with c.mu held.
func (c *ResponseCache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
}

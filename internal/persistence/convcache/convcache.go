// Package convcache memoizes conversion results keyed by content hash.
//
// Two tiers: an in-process map checked first, then an optional sqlite-backed
// store shared across processes. A persisted hit back-fills the memory tier.
// The cache is unbounded; callers needing bounds wrap it with their own
// key-count limit.
package convcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Entry is one self-contained cached record: a small JSON metadata document
// plus an opaque payload blob. Entries are written whole; there are no
// partial-entry updates.
type Entry struct {
	Meta json.RawMessage
	Blob []byte
}

type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Stores uint64 `json:"stores"`
}

type Cache struct {
	mu    sync.RWMutex
	mem   map[string]Entry
	store *SQLiteStore

	hits   atomic.Uint64
	misses atomic.Uint64
	stores atomic.Uint64
}

// New returns a cache backed by an optional persisted store (nil for
// memory-only operation).
func New(store *SQLiteStore) *Cache {
	return &Cache{
		mem:   make(map[string]Entry),
		store: store,
	}
}

// HashKey derives the persisted-tier row key for a logical cache key.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for key. Persisted-tier read failures count
// as misses; the cache never fails a caller.
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return e, true
	}

	if c.store != nil {
		if e, ok, err := c.store.Get(HashKey(key)); err == nil && ok {
			c.mu.Lock()
			c.mem[key] = e
			c.mu.Unlock()
			c.hits.Add(1)
			return e, true
		}
	}

	c.misses.Add(1)
	return Entry{}, false
}

// Set stores an entry in both tiers. Persisted-tier write failures are
// swallowed: the entry is still served from memory for this process.
func (c *Cache) Set(key string, e Entry) {
	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()
	c.stores.Add(1)

	if c.store != nil {
		_ = c.store.Put(HashKey(key), e)
	}
}

// Invalidate removes an entry from both tiers.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()

	if c.store != nil {
		_ = c.store.Delete(HashKey(key))
	}
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Stores: c.stores.Load(),
	}
}

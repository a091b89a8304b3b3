package explain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is used when NewCache is given a non-positive size.
const DefaultCacheSize = 256

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Items   int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// Cache memoizes Normalize per (agent, payload). Watch mode re-renders the
// same payloads every poll, so most lookups hit.
//
// Entries are returned as deep copies; callers may mutate what they get.
type Cache struct {
	lru    *lru.Cache[string, Explanation]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache creates a cache holding at most size explanations.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, Explanation](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create explanation cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Normalize returns the cached explanation for (name, raw), computing it on
// a miss. A nil cache normalizes without memoizing.
func (c *Cache) Normalize(name string, raw []byte) Explanation {
	if c == nil {
		return Normalize(name, raw)
	}
	key := cacheKey(name, raw)
	if e, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return e.Clone()
	}
	c.misses.Add(1)
	e := Normalize(name, raw)
	c.lru.Add(key, e.Clone())
	return e
}

// Stats returns a snapshot of the hit counters.
func (c *Cache) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	s := CacheStats{Items: c.lru.Len(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func cacheKey(name string, raw []byte) string {
	h := sha256.New()
	h.Write([]byte(ParseAgentName(name)))
	h.Write([]byte{0})
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

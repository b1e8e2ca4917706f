package similarity

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default number of memoized pairs
const DefaultCacheSize = 100000

type pairKey struct {
	lo, hi string
}

// Cached memoizes an oracle's scores keyed by the unordered pair of keyword sets.
// It is safe for concurrent use.
type Cached struct {
	oracle Oracle
	cache  *lru.Cache[pairKey, float64]
	hits   atomic.Int64
	misses atomic.Int64
}

func NewCached(oracle Oracle, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[pairKey, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create similarity cache: %w", err)
	}

	return &Cached{oracle: oracle, cache: cache}, nil
}

func (c *Cached) Similarity(a, b []string) float64 {
	ka, kb := Key(a), Key(b)
	if ka > kb {
		ka, kb = kb, ka
	}
	key := pairKey{lo: ka, hi: kb}

	if score, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return score
	}
	c.misses.Add(1)

	score := c.oracle.Similarity(a, b)
	c.cache.Add(key, score)
	return score
}

// Stats returns cache hits, misses and the current number of entries
func (c *Cached) Stats() (hits, misses int64, size int) {
	return c.hits.Load(), c.misses.Load(), c.cache.Len()
}

// Unwrap returns the memoized oracle
func (c *Cached) Unwrap() Oracle {
	return c.oracle
}

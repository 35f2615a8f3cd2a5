// Package subparsecache implements runtime/parser.SubParseCache,
// memoizing a command substitution's sub-parse keyed by a blake2b hash
// of its inner text (spec.md §2.4's sub-parse memoization cache).
// Grounded on the teacher's core/types.validatorCache: same bounded
// map-with-clear-on-full eviction policy, same RWMutex shape, scaled
// down from a schema-validator cache to a parse-result cache.
package subparsecache

import (
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/posh-lang/posh/runtime/parser"
)

// defaultMaxSize bounds the cache the same way the teacher's validator
// cache does: "simple eviction: if full, clear it" rather than true
// LRU, since a sub-parse cache's hit rate does not depend on precise
// recency (identical command-substitution text in a script tends to
// repeat densely or not at all).
const defaultMaxSize = 256

// Cache is a bounded, concurrency-safe parser.SubParseCache keyed by
// blake2b.Sum256 of the inner command-substitution text.
type Cache struct {
	mu      sync.RWMutex
	entries map[[32]byte]*parser.SubParseResult
	maxSize int
}

// New creates a Cache with the given maximum entry count (defaultMaxSize
// if n <= 0).
func New(n int) *Cache {
	if n <= 0 {
		n = defaultMaxSize
	}
	return &Cache{entries: make(map[[32]byte]*parser.SubParseResult), maxSize: n}
}

var _ parser.SubParseCache = (*Cache)(nil)

// Get implements parser.SubParseCache.
func (c *Cache) Get(key string) (*parser.SubParseResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[blake2b.Sum256([]byte(key))]
	return v, ok
}

// Put implements parser.SubParseCache.
func (c *Cache) Put(key string, result *parser.SubParseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.entries = make(map[[32]byte]*parser.SubParseResult)
	}
	c.entries[blake2b.Sum256([]byte(key))] = result
}

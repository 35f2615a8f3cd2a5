package subparsecache_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/posh-lang/posh/core/ast"
	"github.com/posh-lang/posh/internal/subparsecache"
	"github.com/posh-lang/posh/runtime/parser"
)

func TestGetMissOnEmptyCache(t *testing.T) {
	c := subparsecache.New(4)
	_, ok := c.Get("echo hi")
	assert.False(t, ok)
}

func TestPutThenGetHits(t *testing.T) {
	c := subparsecache.New(4)
	want := &parser.SubParseResult{Tree: &ast.SyntaxTree{}, Finished: true}
	c.Put("echo hi", want)

	got, ok := c.Get("echo hi")
	assert.True(t, ok)
	assert.Same(t, want, got)
}

func TestGetDoesNotHitOnDifferentKey(t *testing.T) {
	c := subparsecache.New(4)
	c.Put("echo a", &parser.SubParseResult{Finished: true})

	_, ok := c.Get("echo b")
	assert.False(t, ok)
}

func TestEvictsByClearingWhenFull(t *testing.T) {
	c := subparsecache.New(2)
	c.Put("a", &parser.SubParseResult{Finished: true})
	c.Put("b", &parser.SubParseResult{Finished: true})
	// cache now at maxSize; the next Put clears everything first.
	c.Put("c", &parser.SubParseResult{Finished: true})

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	cVal, cOK := c.Get("c")
	assert.False(t, aOK)
	assert.False(t, bOK)
	assert.True(t, cOK)
	assert.NotNil(t, cVal)
}

func TestNewDefaultsNonPositiveSize(t *testing.T) {
	c := subparsecache.New(0)
	for i := 0; i < 300; i++ {
		c.Put(fmt.Sprintf("key-%d", i), &parser.SubParseResult{Finished: true})
	}
	// defaultMaxSize (256) should have triggered at least one clear by
	// now; the cache must still be usable afterward.
	c.Put("final", &parser.SubParseResult{Finished: true})
	_, ok := c.Get("final")
	assert.True(t, ok)
}

func TestCacheImplementsParserSubParseCache(t *testing.T) {
	var _ parser.SubParseCache = subparsecache.New(1)
}

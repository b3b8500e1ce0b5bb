package catalog

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/caseyWebb/elm-package-mcp-server/internal/docs"
)

// DefaultCacheSize is the number of parsed docs.json indices kept in memory
const DefaultCacheSize = 64

// docsCache holds parsed indices by "author/name@version". Indices are
// immutable, so they are shared without copying.
type docsCache struct {
	cache *lru.Cache[string, *docs.Index]
}

func newDocsCache(maxLen int) *docsCache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, *docs.Index](maxLen)
	if err != nil {
		// Only fails for a non-positive size
		cache, _ = lru.New[string, *docs.Index](DefaultCacheSize)
	}
	return &docsCache{cache: cache}
}

func (c *docsCache) Get(key string) (*docs.Index, bool) {
	return c.cache.Get(key)
}

func (c *docsCache) Set(key string, idx *docs.Index) {
	c.cache.Add(key, idx)
}

func (c *docsCache) Len() int {
	return c.cache.Len()
}

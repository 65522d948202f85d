package page

import (
	"fmt"
	"strings"
	"time"

	"github.com/maypok86/otter"
)

// Cache holds rendered archive pages keyed by request path
// ("/archive/2019"). Only rewritten pages are stored.
type Cache struct {
	cache otter.Cache[string, []byte]
}

// NewCache creates a page cache for up to capacity pages, each kept for ttl.
func NewCache(capacity int, ttl time.Duration) (*Cache, error) {
	cache, err := otter.MustBuilder[string, []byte](capacity).
		Cost(func(_ string, _ []byte) uint32 { return 1 }).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build archive page cache: %w", err)
	}
	return &Cache{cache: cache}, nil
}

func (c *Cache) Get(path string) ([]byte, bool) {
	return c.cache.Get(path)
}

func (c *Cache) Set(path string, page []byte) {
	c.cache.Set(path, page)
}

// Invalidate drops the given paths. "/archive" drops every archived year.
func (c *Cache) Invalidate(paths ...string) {
	for _, p := range paths {
		if p == PathPrefix {
			c.cache.DeleteByFunc(func(key string, _ []byte) bool {
				return strings.HasPrefix(key, PathPrefix+"/")
			})
			continue
		}
		c.cache.Delete(p)
	}
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() {
	c.cache.Clear()
}

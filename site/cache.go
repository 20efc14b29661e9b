package site

import (
	"sync"

	"github.com/iedon/wikimarkup-go/pipeline"
)

type cacheKey struct {
	id      int
	version int64
}

// PageCache holds cacheable renderings keyed by page id and version.
type PageCache struct {
	mu         sync.RWMutex
	pages      map[cacheKey]*pipeline.RenderedPage
	generation uint64
}

func newPageCache() *PageCache {
	return &PageCache{pages: make(map[cacheKey]*pipeline.RenderedPage)}
}

func (c *PageCache) Get(key cacheKey) (*pipeline.RenderedPage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[key]
	return page, ok
}

// Generation changes on every Clear. Capture it before rendering and
// hand it to Put.
func (c *PageCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Put stores page, replacing older versions of the same id. Pages rendered
// before the latest Clear are dropped.
func (c *PageCache) Put(key cacheKey, page *pipeline.RenderedPage, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	for existing := range c.pages {
		if existing.id == key.id {
			delete(c.pages, existing)
		}
	}
	c.pages[key] = page
}

func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

func (c *PageCache) Clear() {
	c.mu.Lock()
	clear(c.pages)
	c.generation++
	c.mu.Unlock()
}

package weave

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// viewCache holds resolved views of sealed revisions. A nil cache is valid
// and never hits. Cached views are shared and must not be modified.
type viewCache struct {
	views *lru.Cache[RevisionID, map[Edge]int]
}

func newViewCache(size int) *viewCache {
	if size <= 0 {
		return nil
	}
	views, err := lru.New[RevisionID, map[Edge]int](size)
	if err != nil {
		return nil
	}
	return &viewCache{views: views}
}

func (c *viewCache) get(id RevisionID) (map[Edge]int, bool) {
	if c == nil {
		return nil, false
	}
	return c.views.Get(id)
}

func (c *viewCache) add(id RevisionID, view map[Edge]int) {
	if c == nil {
		return
	}
	c.views.Add(id, view)
}

func (c *viewCache) len() int {
	if c == nil {
		return 0
	}
	return c.views.Len()
}

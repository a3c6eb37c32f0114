package report

import (
	lru "github.com/hashicorp/golang-lru"

	"ridefunnel/model"
)

// ResultCache - In-process LRU of computed funnel rows keyed by query
// hash and snapshot id. Re-running an identical query on an unchanged
// snapshot is idempotent, so serving the cached rows is exact.
type ResultCache struct {
	cache *lru.Cache
}

func NewResultCache(size int) (*ResultCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{cache: cache}, nil
}

func (c *ResultCache) Get(key string) ([]model.FunnelRow, bool) {
	value, exists := c.cache.Get(key)
	if !exists {
		return nil, false
	}
	rows, ok := value.([]model.FunnelRow)
	return rows, ok
}

func (c *ResultCache) Add(key string, rows []model.FunnelRow) {
	c.cache.Add(key, rows)
}

package quality

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ReputationCache caches a source URL's computed domain reputation score
// for the lifetime of a QualityScorer, so rescoring the same URL within a
// run skips recomputing the TLD/known-domain lookup. Entries are keyed by
// the full URL, not by host, so two URLs on the same domain are computed
// separately (spec §4.4
// names this as a pure function, but the pack's LRU library is a natural
// fit for memoizing it across a run's many sources).
type ReputationCache struct {
	cache *lru.Cache[string, float64]
}

// NewReputationCache builds a cache holding up to size entries.
func NewReputationCache(size int) *ReputationCache {
	if size <= 0 {
		size = 256
	}
	cache, _ := lru.New[string, float64](size)
	return &ReputationCache{cache: cache}
}

func (c *ReputationCache) Get(url string) (float64, bool) {
	return c.cache.Get(url)
}

func (c *ReputationCache) Put(url string, score float64) {
	c.cache.Add(url, score)
}

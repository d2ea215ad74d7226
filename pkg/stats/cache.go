package stats

import (
	"sync"
	"time"

	"droscher.com/SipGargoyle/pkg/model"
)

// DefaultCacheTTL bounds how long an aggregate may be served without
// recomputation.
const DefaultCacheTTL = 5 * time.Minute

// CacheKey identifies one aggregation result. The record count makes a
// stale entry miss when the underlying set changed size between the
// range query and the lookup.
type CacheKey struct {
	Period Period
	Start  string
	End    string
	Count  int
}

// KeyFor builds the cache key of an aggregation call.
func KeyFor(period Period, r Range, recordCount int) CacheKey {
	return CacheKey{
		Period: period,
		Start:  r.Start.Format(model.DateLayout),
		End:    r.End.Format(model.DateLayout),
		Count:  recordCount,
	}
}

// Cache memoizes GeneralStats results with a TTL. It is an optimization
// wrapper only; correctness always comes from recomputing over the
// current entry set, and every write to the store must Invalidate.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[CacheKey]cacheEntry
}

type cacheEntry struct {
	stats    GeneralStats
	storedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cache{ttl: ttl, entries: make(map[CacheKey]cacheEntry)}
}

func (c *Cache) Get(key CacheKey) (GeneralStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.entries[key]
	if !found || time.Since(entry.storedAt) > c.ttl {
		delete(c.entries, key)

		return GeneralStats{}, false
	}

	return entry.stats, true
}

func (c *Cache) Put(key CacheKey, value GeneralStats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{stats: value, storedAt: time.Now()}
}

// Invalidate drops everything. Called whenever the entry set changes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]cacheEntry)
}

package segment

import (
	"sync"
	"time"

	"github.com/ijalalfrz/flight-segment-search/internal/app/dto"
)

const DefaultCacheTTL = 5 * time.Minute

// CacheEntry is the merged state of one remote search. Results slices are
// never modified in place once stored, so copies of an entry may share them.
type CacheEntry struct {
	Results   []dto.ResultItem
	Complete  bool
	Progress  int
	Cursor    string
	SearchID  string
	UpdatedAt time.Time
}

// ResultCache maps keys to their latest entry. Staleness is decided lazily
// by readers; nothing is evicted in the background.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &ResultCache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the entry for key regardless of its age.
func (c *ResultCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]

	return entry, ok
}

// GetFresh returns the entry for key only while it is within the TTL.
func (c *ResultCache) GetFresh(key string) (CacheEntry, bool) {
	entry, ok := c.Get(key)
	if !ok || !c.IsFresh(entry) {
		return CacheEntry{}, false
	}

	return entry, true
}

func (c *ResultCache) IsFresh(entry CacheEntry) bool {
	return c.now().Sub(entry.UpdatedAt) <= c.ttl
}

// Put overwrites the entry for key and stamps it with the current time.
func (c *ResultCache) Put(key string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.UpdatedAt = c.now()
	c.entries[key] = entry
}

// Update runs fn under the cache lock with the current entry for key. The
// entry returned by fn is stored only when fn reports write.
func (c *ResultCache) Update(key string, fn func(prev CacheEntry, found bool) (next CacheEntry, write bool)) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, found := c.entries[key]

	next, write := fn(prev, found)
	if !write {
		return prev, false
	}

	next.UpdatedAt = c.now()
	c.entries[key] = next

	return next, true
}

func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]CacheEntry)
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// MergeResults merges incoming into existing by result ID. A resent ID
// replaces the earlier item in place; new IDs are appended in arrival order.
// It returns a new slice and the number of IDs that were not present before.
func MergeResults(existing, incoming []dto.ResultItem) ([]dto.ResultItem, int) {
	merged := make([]dto.ResultItem, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged)+len(incoming))
	for i, item := range merged {
		index[item.ID] = i
	}

	added := 0
	for _, item := range incoming {
		if i, ok := index[item.ID]; ok {
			merged[i] = item
			continue
		}

		index[item.ID] = len(merged)
		merged = append(merged, item)
		added++
	}

	return merged, added
}

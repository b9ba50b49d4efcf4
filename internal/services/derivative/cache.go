package derivative

import (
	"sync"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
)

type cacheKey struct {
	SourcePath string
	Variant    enums.Variant
}

type cacheEntry struct {
	key  cacheKey
	url  string
	size int64
}

// Cache is a byte-budget bounded store of resolved derivative URLs.
// Entries are immutable once written; when an insert would exceed the
// budget, the oldest 30% of entries by insertion order are evicted.
// Insertion-order eviction is the deliberate policy: evicting something
// still useful only costs a re-resolution.
type Cache struct {
	mu      sync.Mutex
	budget  int64
	total   int64
	order   []cacheKey
	entries map[cacheKey]cacheEntry
}

const defaultBudgetBytes = 4 << 20

func NewCache(budgetBytes int64) *Cache {
	if budgetBytes <= 0 {
		budgetBytes = defaultBudgetBytes
	}

	return &Cache{
		budget:  budgetBytes,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *Cache) Get(sourcePath string, variant enums.Variant) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey{SourcePath: sourcePath, Variant: variant}]
	if !ok {
		return "", false
	}
	return entry.url, true
}

// Put stores a resolved URL. A repeated put for an existing key is a
// no-op so a cached URL can never change underneath a reader. Values
// larger than the whole budget are not cached at all.
func (c *Cache) Put(sourcePath string, variant enums.Variant, url string, sizeEstimate int64) {
	if sourcePath == "" || url == "" {
		return
	}
	if sizeEstimate <= 0 {
		sizeEstimate = int64(len(url))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if sizeEstimate > c.budget {
		return
	}

	key := cacheKey{SourcePath: sourcePath, Variant: variant}
	if _, ok := c.entries[key]; ok {
		return
	}

	for c.total+sizeEstimate > c.budget && len(c.order) > 0 {
		c.evictOldest()
	}

	c.entries[key] = cacheEntry{key: key, url: url, size: sizeEstimate}
	c.order = append(c.order, key)
	c.total += sizeEstimate
}

// evictOldest drops the oldest 30% of entries (at least one). Caller
// holds the lock.
func (c *Cache) evictOldest() {
	n := (len(c.order)*3 + 9) / 10
	if n < 1 {
		n = 1
	}

	for _, key := range c.order[:n] {
		if entry, ok := c.entries[key]; ok {
			c.total -= entry.size
			delete(c.entries, key)
		}
	}
	c.order = append(c.order[:0], c.order[n:]...)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

package verifier

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/zeroidhq/zeroid-core/internal/clock"
	"github.com/zeroidhq/zeroid-core/internal/metrics"
	"github.com/zeroidhq/zeroid-core/internal/store"
	"github.com/zeroidhq/zeroid-core/pkg/types"
)

// lruCapacity and entryTTL match spec.md §4.6's L1 cache sizing.
const (
	lruCapacity = 10000
	entryTTL    = time.Hour
)

type lruEntry struct {
	fingerprint string
	value       types.ProofCacheEntry
	expiresAt   time.Time
}

// lruCache is an in-process, single-writer-discipline LRU cache: a mutex
// serializes every Get/Set, and a doubly linked list tracks recency so
// eviction always drops the true least-recently-used entry, matching
// spec.md §4.6's "reinsert to tail on hit" semantics.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    clock.Clock
	list     *list.List
	index    map[string]*list.Element
}

func newLRUCache(capacity int, ttl time.Duration, clk clock.Clock) *lruCache {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &lruCache{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
		list:     list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *lruCache) Get(fingerprint string) (types.ProofCacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[fingerprint]
	if !ok {
		return types.ProofCacheEntry{}, false
	}
	entry := el.Value.(*lruEntry)
	if c.clock.Now().After(entry.expiresAt) {
		c.list.Remove(el)
		delete(c.index, fingerprint)
		return types.ProofCacheEntry{}, false
	}
	c.list.MoveToFront(el)
	return entry.value, true
}

func (c *lruCache) Set(fingerprint string, value types.ProofCacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[fingerprint]; ok {
		entry := el.Value.(*lruEntry)
		entry.value = value
		entry.expiresAt = c.clock.Now().Add(c.ttl)
		c.list.MoveToFront(el)
		return
	}

	entry := &lruEntry{fingerprint: fingerprint, value: value, expiresAt: c.clock.Now().Add(c.ttl)}
	el := c.list.PushFront(entry)
	c.index[fingerprint] = el

	if c.list.Len() > c.capacity {
		oldest := c.list.Back()
		if oldest != nil {
			c.list.Remove(oldest)
			delete(c.index, oldest.Value.(*lruEntry).fingerprint)
		}
	}
}

func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Cache composes the L1 in-process LRU with the L2 encrypted Badger store,
// implementing spec.md §4.6's get/set-cached pipeline.
type Cache struct {
	l1 *lruCache
	l2 *store.ProofCacheStore
}

// NewCache constructs a Cache backed by l2.
func NewCache(l2 *store.ProofCacheStore, clk clock.Clock) *Cache {
	return &Cache{l1: newLRUCache(lruCapacity, entryTTL, clk), l2: l2}
}

// Get checks L1 then L2, promoting an L2 hit into L1.
func (c *Cache) Get(ctx context.Context, fingerprint string) (types.ProofCacheEntry, bool, error) {
	if entry, ok := c.l1.Get(fingerprint); ok {
		metrics.CacheLookupsTotal.WithLabelValues("l1", "hit").Inc()
		return entry, true, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("l1", "miss").Inc()

	entry, err := c.l2.Get(ctx, fingerprint)
	if err != nil {
		return types.ProofCacheEntry{}, false, err
	}
	if entry == nil {
		metrics.CacheLookupsTotal.WithLabelValues("l2", "miss").Inc()
		return types.ProofCacheEntry{}, false, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("l2", "hit").Inc()
	c.l1.Set(fingerprint, *entry)
	return *entry, true, nil
}

// Set writes entry into both cache tiers.
func (c *Cache) Set(ctx context.Context, entry types.ProofCacheEntry) error {
	c.l1.Set(entry.ProofFingerprint, entry)
	return c.l2.Put(ctx, entry, entryTTL)
}

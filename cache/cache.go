// Package cache provides small in-memory LRU caches used by the asset
// pipeline: decoded symbol sheets keyed by path, resolved atlas regions
// keyed by frame index. Values are stored as-is, so callers must not
// mutate a cached value after handing it over.
package cache

import "sync"

// Stats describes a cache snapshot.
type Stats struct {
	Len           int
	Capacity      int
	TotalCapacity int
	Hits          uint64
	Misses        uint64
	HitRate       float64
	Evictions     uint64
}

// Cache is a single-lock LRU cache. When insertion would exceed
// capacity, the oldest quarter of the entries is evicted in one sweep
// so that steady-state writes do not pay an eviction on every Set.
//
// For contended paths use ShardedCache instead.
type Cache[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]*cacheEntry[K, V]
	lru      *lruList[K]
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// New creates an LRU cache holding at most capacity entries.
// If capacity <= 0, DefaultCapacity is used.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[K, V]{
		entries:  make(map[K]*cacheEntry[K, V]),
		lru:      newLRUList[K](),
		capacity: capacity,
	}
}

// Get retrieves a cached value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(entry.node)
	c.hits++
	return entry.value, true
}

// Set stores a value, evicting old entries if the cache is full.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrCreate returns the cached value for key, calling create to
// produce it on a miss. create runs with the cache lock held, so keep
// it fast; the asset loader decodes outside and only caches here.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.lru.MoveToFront(entry.node)
		c.hits++
		return entry.value
	}
	c.misses++
	value := create()
	c.setLocked(key, value)
	return value
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	if existing, ok := c.entries[key]; ok {
		existing.value = value
		c.lru.MoveToFront(existing.node)
		return
	}

	if c.lru.Len() >= c.capacity {
		// Evict a quarter of the capacity, at least one entry.
		batch := c.capacity / 4
		if batch < 1 {
			batch = 1
		}
		for i := 0; i < batch; i++ {
			oldest, ok := c.lru.RemoveOldest()
			if !ok {
				break
			}
			delete(c.entries, oldest)
			c.evictions++
		}
	}

	node := c.lru.PushFront(key)
	c.entries[key] = &cacheEntry[K, V]{value: value, node: node}
}

// Delete removes an entry. Returns true if the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.Remove(entry.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*cacheEntry[K, V])
	c.lru.Clear()
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Capacity returns the maximum number of entries.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Len:           len(c.entries),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity,
		Hits:          c.hits,
		Misses:        c.misses,
		HitRate:       hitRate,
		Evictions:     c.evictions,
	}
}

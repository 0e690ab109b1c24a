// Package cache provides a small thread-safe LRU used to memoize
// rasterized palette lookup tables.
//
// Palette churn is tiny (a handful of LUTs per session), so a single
// mutex-guarded map with an intrusive recency list is enough; the
// point of the cache is identity: building the same stop list twice
// must yield the same strip without re-rasterizing it.
package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the eviction threshold used when NewLRU is given
// a non-positive capacity.
const DefaultCapacity = 64

// LRU is a fixed-capacity least-recently-used cache.
// It is safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*node[K, V]
	head     *node[K, V] // most recently used
	tail     *node[K, V] // least recently used
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// NewLRU creates a cache holding at most capacity entries.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		entries:  make(map[K]*node[K, V]),
		capacity: capacity,
	}
}

// Get returns the cached value for key and whether it was present,
// refreshing its recency on a hit.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.hits.Add(1)
	return n.value, true
}

// GetOrCreate returns the cached value for key, invoking create to
// build it on a miss. create runs with the cache lock held so two
// concurrent misses for the same key build exactly once.
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.entries[key]; ok {
		c.moveToFront(n)
		c.hits.Add(1)
		return n.value
	}
	c.misses.Add(1)

	for len(c.entries) >= c.capacity {
		c.evictOldest()
	}

	n := &node[K, V]{key: key, value: create()}
	c.entries[key] = n
	c.pushFront(n)
	return n.value
}

// Len returns the current number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[K, V]) moveToFront(n *node[K, V]) {
	if c.head == n {
		return
	}
	// Unlink.
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if c.tail == n {
		c.tail = n.prev
	}
	c.pushFront(n)
}

func (c *LRU[K, V]) evictOldest() {
	old := c.tail
	if old == nil {
		return
	}
	if old.prev != nil {
		old.prev.next = nil
	}
	c.tail = old.prev
	if c.head == old {
		c.head = nil
	}
	delete(c.entries, old.key)
}

// internal/cache/lru.go
//
// Small LRU cache used by the web form to hold one submission controller per
// browser session.  Guarded by a mutex, so callers share one instance across
// request goroutines.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a least-recently-used cache bounded to a fixed number of entries.
// Entries the pinned func reports true for are never evicted; while every
// entry is pinned the cache grows past capacity and shrinks back on later
// inserts.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	ll      *list.List
	dict    map[K]*list.Element
	onEvict func(K, V)
	pinned  func(K, V) bool
}

type pair[K comparable, V any] struct {
	key K
	val V
}

// New returns an LRU with the given capacity.  Panics on cap < 1.  Both
// funcs may be nil and both run under the cache lock: onEvict for every
// entry pushed out by capacity pressure, pinned when choosing a victim.
func New[K comparable, V any](capacity int, onEvict func(K, V), pinned func(K, V) bool) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:     capacity,
		ll:      list.New(),
		dict:    make(map[K]*list.Element, capacity),
		onEvict: onEvict,
		pinned:  pinned,
	}
}

// Get retrieves a value and marks it MRU.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, true
	}
	return val, false
}

// GetOrAdd returns the cached value for key, or stores and returns mk().
// mk runs under the cache lock and must not touch the cache.
func (c *LRU[K, V]) GetOrAdd(key K, mk func() V) (val V, added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.ll.MoveToFront(ele)
		return ele.Value.(pair[K, V]).val, false
	}
	val = mk()
	c.dict[key] = c.ll.PushFront(pair[K, V]{key, val})
	c.evict()
	return val, true
}

// evict drops unpinned entries from the LRU end until the cache fits.  The
// entry just pushed to the front is never a candidate.
func (c *LRU[K, V]) evict() {
	ele := c.ll.Back()
	for c.ll.Len() > c.cap && ele != nil && ele != c.ll.Front() {
		prev := ele.Prev()
		p := ele.Value.(pair[K, V])
		if c.pinned == nil || !c.pinned(p.key, p.val) {
			c.ll.Remove(ele)
			delete(c.dict, p.key)
			if c.onEvict != nil {
				c.onEvict(p.key, p.val)
			}
		}
		ele = prev
	}
}

// Len reports current size.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

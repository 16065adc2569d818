// Package cache provides a generic sharded LRU used for memoizing
// per-page metadata (value bounds, availability) that is cheap to hold
// but costly to re-derive from the tile reader.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// shardCount is the number of shards. A power of 2 so shard selection is
// a bitwise AND.
const shardCount = 16

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher returns the key itself as the hash (identity hash).
func Uint64Hasher(u uint64) uint64 { return u }

// Sharded is a thread-safe sharded LRU cache. Sharding keeps lock
// contention negligible when loader goroutines and the render goroutine
// consult metadata concurrently.
type Sharded[K comparable, V any] struct {
	shards   [shardCount]shard[K, V]
	hasher   Hasher[K]
	capacity int // per-shard soft limit

	hits   atomic.Uint64
	misses atomic.Uint64
}

// shard is one lock domain: a map plus an access-ordered eviction clock.
type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	tick    int64
}

type entry[V any] struct {
	value V
	atime int64
}

// NewSharded creates a sharded cache holding up to capacity entries per
// shard. A capacity below 1 is raised to 1.
func NewSharded[K comparable, V any](capacity int, hasher Hasher[K]) *Sharded[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	c := &Sharded[K, V]{hasher: hasher, capacity: capacity}
	for i := range c.shards {
		c.shards[i].entries = make(map[K]*entry[V])
	}
	return c
}

func (c *Sharded[K, V]) shardFor(k K) *shard[K, V] {
	return &c.shards[c.hasher(k)&(shardCount-1)]
}

// Get returns the cached value for k, if present.
func (c *Sharded[K, V]) Get(k K) (V, bool) {
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.tick++
	e.atime = s.tick
	c.hits.Add(1)
	return e.value, true
}

// Set stores v under k, evicting the least recently used entry of the
// shard when it is at capacity.
func (c *Sharded[K, V]) Set(k K, v V) {
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	if e, ok := s.entries[k]; ok {
		e.value = v
		e.atime = s.tick
		return
	}

	if len(s.entries) >= c.capacity {
		var oldest K
		var oldestAt int64 = 1<<63 - 1
		for key, e := range s.entries {
			if e.atime < oldestAt {
				oldest, oldestAt = key, e.atime
			}
		}
		delete(s.entries, oldest)
	}

	s.entries[k] = &entry[V]{value: v, atime: s.tick}
}

// Len returns the total number of cached entries across all shards.
func (c *Sharded[K, V]) Len() int {
	n := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		n += len(c.shards[i].entries)
		c.shards[i].mu.Unlock()
	}
	return n
}

// Stats returns the hit and miss counts since creation.
func (c *Sharded[K, V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestShardedGetSet(t *testing.T) {
	c := NewSharded[string, int](8, StringHasher)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned ok")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after overwrite = %d, want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d after overwrite, want 2", c.Len())
	}
}

func TestShardedCapacityFloor(t *testing.T) {
	c := NewSharded[uint64, int](0, Uint64Hasher)
	c.Set(1, 1)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestShardedEvictsLRU(t *testing.T) {
	// Identity hashing with keys that differ only above the shard bits
	// pins everything to one shard, making eviction order observable.
	c := NewSharded[uint64, int](2, func(uint64) uint64 { return 0 })

	c.Set(1, 1)
	c.Set(2, 2)
	c.Get(1) // make key 2 the oldest
	c.Set(3, 3)

	if _, ok := c.Get(2); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := c.Get(1); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get(3); !ok {
		t.Error("new entry missing after eviction")
	}
}

func TestShardedStats(t *testing.T) {
	c := NewSharded[string, int](4, StringHasher)
	c.Set("x", 1)

	c.Get("x")
	c.Get("x")
	c.Get("y")

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats() = %d, %d, want 2, 1", hits, misses)
	}
}

func TestShardedConcurrent(t *testing.T) {
	c := NewSharded[string, int](64, StringHasher)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("k%d-%d", g, i)
				c.Set(key, i)
				if v, ok := c.Get(key); !ok || v != i {
					t.Errorf("Get(%s) = %d, %v", key, v, ok)
				}
			}
		}()
	}
	wg.Wait()
}

func TestStringHasherSpreads(t *testing.T) {
	if StringHasher("a") == StringHasher("b") {
		t.Error("distinct keys hash equal")
	}
	if StringHasher("a") != StringHasher("a") {
		t.Error("hash not deterministic")
	}
}

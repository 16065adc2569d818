package scm

import "fmt"

// PageKey identifies one page of one data source: the handle returned by
// Cache.AddSource plus the 64-bit index of a node in that source's tile
// pyramid. PageKey is immutable and usable as a map key.
type PageKey struct {
	// File is the source handle within the owning cache.
	File int

	// Index is the page's position in the source pyramid.
	Index int64
}

// String returns a compact representation for logs.
func (k PageKey) String() string {
	return fmt.Sprintf("%d:%d", k.File, k.Index)
}

// pageEntry records where a resident page lives and since when.
type pageEntry struct {
	slot int   // index into the atlas grid
	time int64 // time the page became resident
}

// pageSet maps page keys to atlas residency. It is mutated only from the
// goroutine owning Cache.Update, so it carries no lock; cross-goroutine
// handoff happens exclusively through the two queues.
type pageSet struct {
	m map[PageKey]pageEntry
}

func newPageSet() *pageSet {
	return &pageSet{m: make(map[PageKey]pageEntry)}
}

// get returns the entry for k, if resident.
func (s *pageSet) get(k PageKey) (pageEntry, bool) {
	e, ok := s.m[k]
	return e, ok
}

// insert adds or replaces the entry for k.
func (s *pageSet) insert(k PageKey, e pageEntry) {
	s.m[k] = e
}

// remove deletes the entry for k. Removing an absent key is a no-op.
func (s *pageSet) remove(k PageKey) {
	delete(s.m, k)
}

// len returns the number of resident entries.
func (s *pageSet) len() int {
	return len(s.m)
}

package scm

// TileSource supplies page data for one backing tile set. The cache calls
// ReadPage from its loader goroutines, so implementations must tolerate
// concurrent reads of distinct pages (per-worker decoder state or internal
// locking, their choice). The metadata queries run outside the hot load
// path, on the caller's goroutine.
//
// Package tilefile provides a disk-backed implementation; tests use
// in-memory fakes.
type TileSource interface {
	// ReadPage produces the bordered pixel payload for the given page:
	// (PageSize+2) x (PageSize+2) pixels in the cache's channel/depth
	// layout. A nil payload or an error means the page cannot be
	// produced; the cache drops the request without occupying a slot.
	ReadPage(index int64) ([]byte, error)

	// PageAvailable reports whether the source holds data for the page.
	PageAvailable(index int64) bool

	// PageBounds returns the normalized minimum and maximum sample values
	// within the page, used for horizon and bounding tests.
	PageBounds(index int64) (min, max float32)

	// PageSample returns the normalized sample value for the unit sphere
	// direction v, bypassing the GPU atlas entirely.
	PageSample(v [3]float64) float32
}

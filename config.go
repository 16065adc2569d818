package scm

// Default cache settings. Each can be overridden per cache through
// CacheConfig; the zero value of any field selects its default.
const (
	// DefaultGridSize is the default atlas width and height in pages (16x16).
	DefaultGridSize = 16

	// DefaultPageSize is the default page width and height in pixels,
	// excluding the 1-pixel border on each side.
	DefaultPageSize = 512

	// DefaultWorkers is the default number of loader goroutines.
	DefaultWorkers = 2

	// DefaultNeedQueueSize is the default capacity of the request queue.
	DefaultNeedQueueSize = 32

	// DefaultLoadQueueSize is the default capacity of the result queue.
	DefaultLoadQueueSize = 8

	// DefaultLoadsPerUpdate is the default maximum number of completed
	// loads drained (and uploaded) by a single Update call.
	DefaultLoadsPerUpdate = 2

	// DefaultFadeWindow is the default number of time units over which a
	// newly resident page fades from transparent to fully opaque.
	DefaultFadeWindow = 60

	// MinGridSize is the smallest permitted atlas grid (2x2 pages).
	MinGridSize = 2
)

// CacheConfig holds configuration for creating a Cache.
//
// All tunables live here rather than in package-level mutable state, so two
// caches (say, a 16-bit elevation cache and an RGB imagery cache) can carry
// different settings in the same process.
type CacheConfig struct {
	// GridSize is the atlas width and height in pages. Total slot capacity
	// is GridSize squared. Defaults to DefaultGridSize.
	GridSize int

	// PageSize is the page width and height in pixels, excluding the
	// 1-pixel border duplicated on each side for bilinear filtering.
	// Each atlas slot therefore occupies (PageSize+2)^2 pixels.
	// Defaults to DefaultPageSize.
	PageSize int

	// Channels is the number of color channels per pixel (1, 2, or 4).
	// Defaults to 4.
	Channels int

	// Depth is the number of bits per channel (8 or 16). Defaults to 8.
	Depth int

	// Workers is the number of loader goroutines. Defaults to DefaultWorkers.
	Workers int

	// NeedQueueSize is the capacity of the request queue feeding the
	// loader goroutines. Defaults to DefaultNeedQueueSize.
	NeedQueueSize int

	// LoadQueueSize is the capacity of the result queue draining back to
	// Update. Defaults to DefaultLoadQueueSize.
	LoadQueueSize int

	// LoadsPerUpdate caps how many completed loads a single Update call
	// consumes, bounding per-frame upload cost. Defaults to
	// DefaultLoadsPerUpdate.
	LoadsPerUpdate int

	// FadeWindow is the fade-in duration in the same time units passed to
	// GetPage and Update. Defaults to DefaultFadeWindow.
	FadeWindow int64

	// Label is an optional debug label for the atlas texture.
	Label string
}

// withDefaults returns a copy of c with zero-valued fields replaced by
// their defaults and out-of-range fields clamped.
func (c CacheConfig) withDefaults() CacheConfig {
	if c.GridSize <= 0 {
		c.GridSize = DefaultGridSize
	}
	if c.GridSize < MinGridSize {
		c.GridSize = MinGridSize
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	switch c.Channels {
	case 1, 2, 4:
	default:
		c.Channels = 4
	}
	switch c.Depth {
	case 8, 16:
	default:
		c.Depth = 8
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.NeedQueueSize <= 0 {
		c.NeedQueueSize = DefaultNeedQueueSize
	}
	if c.LoadQueueSize <= 0 {
		c.LoadQueueSize = DefaultLoadQueueSize
	}
	if c.LoadsPerUpdate <= 0 {
		c.LoadsPerUpdate = DefaultLoadsPerUpdate
	}
	if c.FadeWindow <= 0 {
		c.FadeWindow = DefaultFadeWindow
	}
	return c
}

// pageBytes returns the byte size of one bordered page, the unit handled
// by staging buffers and atlas uploads.
func (c CacheConfig) pageBytes() int {
	side := c.PageSize + 2
	return side * side * c.Channels * c.Depth / 8
}

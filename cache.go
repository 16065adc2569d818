package scm

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/scm/cache"
	igpu "github.com/gogpu/scm/internal/gpu"
)

// Cache errors.
var (
	// ErrCacheClosed is returned when operating on a closed cache.
	ErrCacheClosed = errors.New("scm: cache is closed")

	// ErrNilSource is returned when adding a nil tile source.
	ErrNilSource = errors.New("scm: tile source is nil")
)

// boundsCacheSize bounds the page-bounds memo; bounds queries are tiny but
// hit the tile reader, so recently queried pages are kept in memory.
const boundsCacheSize = 64

// Cache is a demand-paged virtual texture: a fixed-size atlas of page
// slots, fed by a pool of loader goroutines, recycled round-robin.
//
// The goroutine that constructs the cache owns it: GetPage, Update, Flush
// and Close must all run on the goroutine that owns the GPU queue. That
// single-writer discipline is what lets the page tables go lock-free.
// Loader goroutines share only the two queues and the running flag.
type Cache struct {
	config CacheConfig

	atlas *igpu.Atlas
	ring  *igpu.Ring

	pages  *pageSet             // resident pages
	waits  map[PageKey]struct{} // pages requested but not yet loaded
	slots  []PageKey            // reverse map: slot -> resident key
	used   []bool               // slot occupancy
	cursor int                  // next slot to (re)use, wraps mod Slots

	needs *Queue[Task] // requests out to workers
	loads *Queue[Task] // results back from workers

	srcMu   sync.RWMutex
	sources []TileSource

	bounds *cache.Sharded[PageKey, [2]float32]

	running atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// NewCache creates a cache on the given HAL device and queue, allocates
// the atlas texture, and starts the loader goroutines.
func NewCache(device hal.Device, queue hal.Queue, config CacheConfig) (*Cache, error) {
	cfg := config.withDefaults()

	atlas, err := igpu.NewAtlas(device, queue, igpu.AtlasConfig{
		GridSize: cfg.GridSize,
		PageSize: cfg.PageSize,
		Channels: cfg.Channels,
		Depth:    cfg.Depth,
		Label:    cfg.Label,
	})
	if err != nil {
		return nil, err
	}

	c := &Cache{
		config: cfg,
		atlas:  atlas,
		ring:   igpu.NewRing(cfg.LoadQueueSize, atlas.SlotBytes()),
		pages:  newPageSet(),
		waits:  make(map[PageKey]struct{}),
		slots:  make([]PageKey, atlas.Slots()),
		used:   make([]bool, atlas.Slots()),
		needs:  NewQueue[Task](cfg.NeedQueueSize),
		loads:  NewQueue[Task](cfg.LoadQueueSize),
		bounds: cache.NewSharded[PageKey, [2]float32](boundsCacheSize, pageKeyHasher),
	}

	c.running.Store(true)
	c.wg.Add(cfg.Workers)
	for i := range cfg.Workers {
		go c.worker(i)
	}

	Logger().Info("scm: cache created",
		"grid", cfg.GridSize, "page", cfg.PageSize,
		"channels", cfg.Channels, "depth", cfg.Depth,
		"workers", cfg.Workers)

	return c, nil
}

// NewCacheFromProvider creates a cache using a shared GPU device handed in
// by a host application. The provider must expose HAL handles the way
// gpucontext device providers do; see DeviceHandle.
func NewCacheFromProvider(provider any, config CacheConfig) (*Cache, error) {
	device, queue, err := igpu.FromProvider(provider)
	if err != nil {
		return nil, err
	}
	return NewCache(device, queue, config)
}

// pageKeyHasher mixes the source handle into the page index. Page indices
// within one pyramid are already well distributed.
func pageKeyHasher(k PageKey) uint64 {
	return uint64(k.Index)*0x9e3779b97f4a7c15 ^ uint64(uint(k.File)) //nolint:gosec // G115: hash mixing
}

// worker is the loader goroutine loop: pop a request, read the page, push
// the result. Workers never touch the atlas or the page tables, and a
// failed read travels back as an empty payload, never as an error value.
func (c *Cache) worker(id int) {
	defer c.wg.Done()

	for c.running.Load() {
		task, ok := c.needs.Pop()
		if !ok || !c.running.Load() {
			return
		}

		if src := c.source(task.Key.File); src != nil {
			data, err := src.ReadPage(task.Key.Index)
			if err != nil {
				Logger().Warn("scm: page read failed",
					"worker", id, "page", task.Key, "err", err)
			} else {
				task.Data = data
			}
		}

		if !c.loads.Push(task) {
			return
		}
	}
}

// AddSource registers a tile source and returns its handle for use in
// GetPage and the Image binder. Sources cannot be removed; the handle
// stays valid for the cache's lifetime.
func (c *Cache) AddSource(src TileSource) (int, error) {
	if src == nil {
		return 0, ErrNilSource
	}
	if c.closed.Load() {
		return 0, ErrCacheClosed
	}
	c.srcMu.Lock()
	defer c.srcMu.Unlock()
	c.sources = append(c.sources, src)
	return len(c.sources) - 1, nil
}

// source returns the tile source for a handle, or nil for an unknown one.
// Called concurrently from loader goroutines.
func (c *Cache) source(file int) TileSource {
	c.srcMu.RLock()
	defer c.srcMu.RUnlock()
	if file < 0 || file >= len(c.sources) {
		return nil
	}
	return c.sources[file]
}

// GetPage looks up a page. If the page is resident it returns its atlas
// slot, the time it became resident, and true. Otherwise it returns
// (0, now, false) and, if the page is not already in flight, enqueues a
// load request. The caller is expected to fall back to a coarser ancestor
// page until the load lands.
//
// GetPage never blocks and performs no I/O: a full request queue simply
// defers the request to a later call.
func (c *Cache) GetPage(file int, index int64, now int64) (slot int, since int64, resident bool) {
	if c.closed.Load() {
		return 0, now, false
	}

	key := PageKey{File: file, Index: index}

	if e, ok := c.pages.get(key); ok {
		return e.slot, e.time, true
	}
	if _, ok := c.waits[key]; ok {
		return 0, now, false
	}

	// Absent from both tables: request it. Recording the key as pending
	// only after a successful enqueue keeps the two in lockstep, so a
	// full queue cannot strand a key in the pending table forever.
	if c.needs.TryPush(Task{Key: key, RequestedAt: now}) {
		c.waits[key] = struct{}{}
		Logger().Debug("scm: page requested", "page", key)
	}
	return 0, now, false
}

// Update drains up to LoadsPerUpdate completed loads, assigns atlas slots
// round-robin (evicting whatever occupied them), and enqueues the texel
// uploads. Must be called once per frame on the owning goroutine.
func (c *Cache) Update(now int64) {
	if c.closed.Load() {
		return
	}

	for range c.config.LoadsPerUpdate {
		task, ok := c.loads.TryPop()
		if !ok {
			return
		}

		// Only the task carrying a pending key may clear that key. A
		// late or duplicate completion finds the key absent and is a
		// no-op.
		if _, pending := c.waits[task.Key]; !pending {
			continue
		}
		delete(c.waits, task.Key)

		// A failed or malformed read releases the pending entry without
		// occupying a slot. The page can be re-requested later.
		if len(task.Data) != c.atlas.SlotBytes() {
			if task.Valid() {
				Logger().Warn("scm: dropping malformed page",
					"page", task.Key, "bytes", len(task.Data))
			}
			continue
		}

		slot := c.cursor
		c.cursor = (c.cursor + 1) % c.atlas.Slots()

		if c.used[slot] {
			evicted := c.slots[slot]
			c.pages.remove(evicted)
			Logger().Debug("scm: page evicted", "page", evicted, "slot", slot)
		}

		// Stage the payload in a recycled transfer buffer; the queue
		// write is asynchronous, so the buffer goes straight back to
		// the ring once the transfer is enqueued.
		buf := c.ring.Acquire()
		copy(buf, task.Data)
		err := c.atlas.Upload(slot, buf)
		c.ring.Release(buf)
		if err != nil {
			Logger().Warn("scm: page upload failed", "page", task.Key, "err", err)
			c.used[slot] = false
			continue
		}

		c.slots[slot] = task.Key
		c.used[slot] = true
		c.pages.insert(task.Key, pageEntry{slot: slot, time: now})
		Logger().Debug("scm: page resident", "page", task.Key, "slot", slot)
	}
}

// Flush drops every resident page and resets the allocation cursor. The
// atlas texels are left as-is; entries simply stop referencing them.
// Pending loads are unaffected and will land in fresh slots.
func (c *Cache) Flush() {
	if c.closed.Load() {
		return
	}
	for slot := range c.used {
		if c.used[slot] {
			c.pages.remove(c.slots[slot])
			c.used[slot] = false
			c.slots[slot] = PageKey{}
		}
	}
	c.cursor = 0
}

// PageBounds returns the source's normalized value bounds for a page,
// memoized per key.
func (c *Cache) PageBounds(file int, index int64) (minv, maxv float32) {
	key := PageKey{File: file, Index: index}
	if b, ok := c.bounds.Get(key); ok {
		return b[0], b[1]
	}
	src := c.source(file)
	if src == nil {
		return 0, 0
	}
	minv, maxv = src.PageBounds(index)
	c.bounds.Set(key, [2]float32{minv, maxv})
	return minv, maxv
}

// PageStatus reports whether the source holds data for a page.
func (c *Cache) PageStatus(file int, index int64) bool {
	src := c.source(file)
	return src != nil && src.PageAvailable(index)
}

// PageSample returns the source's normalized sample for a unit sphere
// direction, bypassing the atlas.
func (c *Cache) PageSample(file int, v [3]float64) float32 {
	src := c.source(file)
	if src == nil {
		return 0
	}
	return src.PageSample(v)
}

// GridSize returns the atlas width and height in pages.
func (c *Cache) GridSize() int { return c.config.GridSize }

// PageSize returns the page width and height in pixels, borders excluded.
func (c *Cache) PageSize() int { return c.config.PageSize }

// FadeWindow returns the configured fade-in duration.
func (c *Cache) FadeWindow() int64 { return c.config.FadeWindow }

// PageScale returns the page-to-atlas texture coordinate scale factor,
// accounting for the 1-pixel slot border.
func (c *Cache) PageScale() float32 { return c.atlas.PageScale() }

// SlotOffset returns the texture coordinates of a slot's usable interior,
// for use as a per-page shader uniform.
func (c *Cache) SlotOffset(slot int) (u, v float32) { return c.atlas.SlotOffset(slot) }

// Texture returns the atlas texture handle for binding, or nil after Close.
func (c *Cache) Texture() hal.Texture { return c.atlas.Texture() }

// View returns the atlas texture view for binding, or nil after Close.
func (c *Cache) View() hal.TextureView { return c.atlas.View() }

// Residents returns the number of currently resident pages.
func (c *Cache) Residents() int { return c.pages.len() }

// Pending returns the number of in-flight page loads.
func (c *Cache) Pending() int { return len(c.waits) }

// Close stops accepting requests, wakes and joins every loader goroutine,
// and releases the atlas. Safe to call more than once; only the first call
// does the work. Must run on the owning goroutine.
func (c *Cache) Close() {
	if c.closed.Swap(true) {
		return
	}

	// Teardown order matters: clear the running flag first so workers
	// exit their loops, then close both queues so any worker blocked in
	// Pop or Push wakes immediately, then join.
	c.running.Store(false)
	c.needs.Close()
	c.loads.Close()
	c.wg.Wait()

	c.atlas.Close()
	Logger().Info("scm: cache closed")
}

// Command scmcache exercises a page cache against a tile directory
// without a window or a real GPU: it creates a cache on the noop
// backend, streams a range of page requests through the loader pipeline,
// and reports residency per simulated frame.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/scm"
	"github.com/gogpu/scm/tilefile"
)

func main() {
	var (
		dir      = flag.String("dir", ".", "tile pyramid directory")
		grid     = flag.Int("grid", 4, "atlas grid size in pages")
		page     = flag.Int("page", 16, "page size in pixels, border excluded")
		channels = flag.Int("channels", 1, "channels per pixel (1, 2, or 4)")
		depth    = flag.Int("depth", 8, "bits per channel (8 or 16)")
		workers  = flag.Int("workers", 2, "loader goroutines")
		pages    = flag.Int64("pages", 16, "number of page indices to request")
		frames   = flag.Int("frames", 240, "frames to simulate")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	scm.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		log.Fatalf("create instance: %v", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		log.Fatal("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer openDev.Device.Destroy()

	cache, err := scm.NewCache(openDev.Device, openDev.Queue, scm.CacheConfig{
		GridSize: *grid,
		PageSize: *page,
		Channels: *channels,
		Depth:    *depth,
		Workers:  *workers,
		Label:    "scmcache",
	})
	if err != nil {
		log.Fatalf("create cache: %v", err)
	}
	defer cache.Close()

	src, err := tilefile.New(tilefile.Config{
		Dir:      *dir,
		PageSize: *page,
		Channels: *channels,
		Depth:    *depth,
	})
	if err != nil {
		log.Fatalf("open tiles: %v", err)
	}
	img, err := scm.NewImage("layer", cache, src, false)
	if err != nil {
		log.Fatalf("create image: %v", err)
	}

	// Sweep the requested index range, a few pages per frame, the way a
	// traversal would touch pages as the view moves.
	next := int64(0)
	for frame := range *frames {
		now := int64(frame)
		for range 4 {
			img.Touch(next % *pages, now)
			next++
		}
		cache.Update(now)

		if frame%30 == 0 {
			log.Printf("frame %3d: resident %d pending %d",
				frame, cache.Residents(), cache.Pending())
		}
	}

	log.Printf("done: resident %d of %d requested pages", cache.Residents(), *pages)
}

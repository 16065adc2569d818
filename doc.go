// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scm implements a demand-paged virtual texture for spherical cube
// map datasets: planetary-scale elevation and imagery pyramids streamed from
// disk into a single fixed-size GPU texture atlas.
//
// The dataset is far larger than video memory, so pages are loaded on demand
// by a pool of background workers and copied into atlas slots as they arrive.
// The render thread never blocks: [Cache.GetPage] is a synchronous table
// lookup that enqueues a load request on a miss and reports non-residency,
// and [Cache.Update] drains a bounded number of completed loads per frame.
//
// # Architecture
//
// A [Cache] owns the atlas texture, two page tables (resident and pending),
// two bounded queues (requests out, results back), a ring of staging buffers,
// and the loader goroutines. Pages are addressed by [PageKey]: a source
// handle returned by [Cache.AddSource] plus a 64-bit pyramid index. Atlas
// slots are recycled round-robin; an evicted page that is still wanted is
// simply re-requested and reappears after one load latency.
//
// An [Image] wraps a cache and one data layer (color, elevation) and
// translates page lookups into shader uniform values, including the
// fade coefficient that blends a freshly loaded page in over a fixed
// window instead of popping.
//
// Tile data is produced by a [TileSource]; package tilefile provides a
// directory-backed implementation for common image formats.
//
// # Threading
//
// All atlas and page-table mutation happens on the goroutine that calls
// GetPage and Update, which must be the one owning the GPU queue. Loader
// goroutines touch only the two queues and the tile source. See [Cache]
// for the full contract.
//
// By default the package produces no log output; call [SetLogger] to
// enable structured logging.
package scm

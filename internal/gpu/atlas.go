package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Atlas-related errors.
var (
	// ErrAtlasClosed is returned when operating on a closed atlas.
	ErrAtlasClosed = errors.New("scm: atlas is closed")

	// ErrBadSlot is returned when a slot index is outside the grid.
	ErrBadSlot = errors.New("scm: slot index out of range")

	// ErrBadPayload is returned when an upload payload has the wrong size.
	ErrBadPayload = errors.New("scm: payload size does not match slot footprint")
)

// AtlasConfig describes the atlas texture to create.
type AtlasConfig struct {
	// GridSize is the atlas width and height in pages.
	GridSize int

	// PageSize is the page width and height in pixels, borders excluded.
	// Each slot occupies (PageSize+2)^2 texels so that bilinear sampling
	// across a page edge never bleeds into a neighboring slot.
	PageSize int

	// Channels is the number of channels per pixel.
	Channels int

	// Depth is the number of bits per channel.
	Depth int

	// Label is an optional debug label for GPU tooling.
	Label string
}

// Atlas is the single fixed-capacity GPU texture that resident pages are
// copied into: a GridSize x GridSize grid of bordered page slots.
//
// Only the goroutine owning the GPU queue may call Upload or Close. Slot
// assignment is the cache's business; the atlas only does geometry and
// texel transfer.
type Atlas struct {
	device hal.Device
	queue  hal.Queue

	texture hal.Texture
	view    hal.TextureView

	grid   int // pages per side
	page   int // texels per page side, borders excluded
	pitch  int // texels per slot side (page + 2)
	bpp    int // bytes per texel
	format gputypes.TextureFormat

	released atomic.Bool
	label    string
}

// NewAtlas creates the atlas texture on the given device. The texture side
// is GridSize*(PageSize+2) texels.
func NewAtlas(device hal.Device, queue hal.Queue, config AtlasConfig) (*Atlas, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}

	format, err := PixelFormat(config.Channels, config.Depth)
	if err != nil {
		return nil, err
	}

	pitch := config.PageSize + 2
	side := uint32(config.GridSize * pitch) //nolint:gosec // G115: sizes are validated small

	label := config.Label
	if label == "" {
		label = "scm_atlas"
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: side, Height: side, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("scm: create atlas texture: %w", err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("scm: create atlas view: %w", err)
	}

	return &Atlas{
		device:  device,
		queue:   queue,
		texture: tex,
		view:    view,
		grid:    config.GridSize,
		page:    config.PageSize,
		pitch:   pitch,
		bpp:     config.Channels * config.Depth / 8,
		format:  format,
		label:   label,
	}, nil
}

// GridSize returns the atlas width and height in pages.
func (a *Atlas) GridSize() int { return a.grid }

// PageSize returns the page width and height in texels, borders excluded.
func (a *Atlas) PageSize() int { return a.page }

// Slots returns the total slot capacity, GridSize squared.
func (a *Atlas) Slots() int { return a.grid * a.grid }

// SlotBytes returns the byte size of one bordered slot payload.
func (a *Atlas) SlotBytes() int { return a.pitch * a.pitch * a.bpp }

// SlotOrigin returns the texel coordinates of the slot's top-left corner,
// border included.
func (a *Atlas) SlotOrigin(slot int) (x, y int) {
	return (slot % a.grid) * a.pitch, (slot / a.grid) * a.pitch
}

// PageScale returns the page-to-atlas texture coordinate scale factor,
// accounting for the border: n / (n+2) / s per axis.
func (a *Atlas) PageScale() float32 {
	return float32(a.page) / float32(a.pitch) / float32(a.grid)
}

// SlotOffset returns the texture coordinates of the slot's usable interior
// (just inside the border), for use as a per-page shader uniform.
func (a *Atlas) SlotOffset(slot int) (u, v float32) {
	side := float32(a.grid * a.pitch)
	u = (float32(slot%a.grid)*float32(a.pitch) + 1) / side
	v = (float32(slot/a.grid)*float32(a.pitch) + 1) / side
	return u, v
}

// Upload copies one bordered page payload into the given slot. The payload
// must be exactly SlotBytes long, tightly packed. The write is enqueued on
// the GPU queue and completes asynchronously with respect to the caller.
func (a *Atlas) Upload(slot int, data []byte) error {
	if a.released.Load() {
		return ErrAtlasClosed
	}
	if slot < 0 || slot >= a.Slots() {
		return fmt.Errorf("%w: %d of %d", ErrBadSlot, slot, a.Slots())
	}
	if len(data) != a.SlotBytes() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBadPayload, len(data), a.SlotBytes())
	}

	x, y := a.SlotOrigin(slot)
	extent := uint32(a.pitch) //nolint:gosec // G115: pitch is a small validated size

	a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  a.texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y), Z: 0}, //nolint:gosec // G115
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  extent * uint32(a.bpp), //nolint:gosec // G115
			RowsPerImage: extent,
		},
		&hal.Extent3D{Width: extent, Height: extent, DepthOrArrayLayers: 1},
	)
	return nil
}

// Texture returns the underlying texture handle for binding.
func (a *Atlas) Texture() hal.Texture {
	if a.released.Load() {
		return nil
	}
	return a.texture
}

// View returns the texture view for binding.
func (a *Atlas) View() hal.TextureView {
	if a.released.Load() {
		return nil
	}
	return a.view
}

// IsClosed reports whether Close has been called.
func (a *Atlas) IsClosed() bool { return a.released.Load() }

// Close releases the atlas texture. The atlas must not be used afterwards.
// Close is idempotent.
func (a *Atlas) Close() {
	if a.released.Swap(true) {
		return
	}
	if a.view != nil {
		a.device.DestroyTextureView(a.view)
		a.view = nil
	}
	if a.texture != nil {
		a.device.DestroyTexture(a.texture)
		a.texture = nil
	}
}

// String returns a string representation for logs.
func (a *Atlas) String() string {
	status := "active"
	if a.released.Load() {
		status = "closed"
	}
	return fmt.Sprintf("Atlas[%s %dx%d pages of %d+2px %s]", a.label, a.grid, a.grid, a.page, status)
}

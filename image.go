package scm

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// ErrNilCache is returned when creating an image without a cache.
var ErrNilCache = errors.New("scm: cache is nil")

// UniformSetter receives shader uniform values from an Image. The sphere
// renderer implements it on top of its shader program; tests implement it
// with a map. Uniform names follow the layer name, e.g. "color.a[3]".
type UniformSetter interface {
	// SetInt sets an integer uniform (sampler unit).
	SetInt(name string, v int)

	// SetFloat sets a scalar uniform.
	SetFloat(name string, v float32)

	// SetFloat2 sets a two-component vector uniform.
	SetFloat2(name string, x, y float32)
}

// Image binds one logical data layer (color, elevation, normal) to a
// page cache. It owns the layer's normalization range and translates page
// lookups into the uniform values the sphere shader consumes: the atlas
// scale, and per-depth (fade alpha, slot offset) pairs.
//
// The GetPage/BindPage path runs on the cache's owning goroutine.
type Image struct {
	name   string
	cache  *Cache
	file   int
	height bool

	// Linear remap applied to normalized samples: v*(k1-k0)+k0.
	k0, k1 float32
}

// NewImage registers src with the cache and wraps the resulting handle as
// a named layer. The name prefixes every uniform this image sets. A height
// layer additionally participates in CPU-side terrain sampling.
func NewImage(name string, c *Cache, src TileSource, height bool) (*Image, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	file, err := c.AddSource(src)
	if err != nil {
		return nil, err
	}
	return &Image{
		name:   name,
		cache:  c,
		file:   file,
		height: height,
		k0:     0,
		k1:     1,
	}, nil
}

// Name returns the layer name.
func (im *Image) Name() string { return im.name }

// File returns the cache source handle.
func (im *Image) File() int { return im.file }

// IsHeight reports whether this layer is a height map.
func (im *Image) IsHeight() bool { return im.height }

// SetNormalization sets the linear remap (k0, k1) applied to normalized
// sample values by PageSample and PageBounds.
func (im *Image) SetNormalization(k0, k1 float32) {
	im.k0, im.k1 = k0, k1
}

// Bind sets the layer's frame-constant uniforms (sampler unit,
// page-to-atlas scale, normalization) and returns the atlas view for the
// renderer to place in its bind group.
func (im *Image) Bind(u UniformSetter, unit int) hal.TextureView {
	scale := im.cache.PageScale()

	u.SetInt(im.name+".S", unit)
	u.SetFloat2(im.name+".r", scale, scale)
	u.SetFloat(im.name+".k0", im.k0)
	u.SetFloat(im.name+".k1", im.k1)

	return im.cache.View()
}

// BindPage looks up one page and sets its per-depth uniform pair: the fade
// alpha and the slot's interior texture coordinates. A page that is not
// resident contributes alpha 0, so the shader falls through to the
// coarser ancestor bound at a shallower depth.
func (im *Image) BindPage(u UniformSetter, depth int, now int64, index int64) {
	slot, since, resident := im.cache.GetPage(im.file, index, now)

	x, y := im.cache.SlotOffset(slot)
	u.SetFloat(fmt.Sprintf("%s.a[%d]", im.name, depth), im.fadeAlpha(now, since, resident))
	u.SetFloat2(fmt.Sprintf("%s.b[%d]", im.name, depth), x, y)
}

// UnbindPage resets the per-depth uniform pair to no contribution.
func (im *Image) UnbindPage(u UniformSetter, depth int) {
	u.SetFloat(fmt.Sprintf("%s.a[%d]", im.name, depth), 0)
	u.SetFloat2(fmt.Sprintf("%s.b[%d]", im.name, depth), 0, 0)
}

// Touch registers interest in a page without consuming the result, priming
// a load for pages likely needed soon.
func (im *Image) Touch(index int64, now int64) {
	im.cache.GetPage(im.file, index, now)
}

// fadeAlpha ramps a newly resident page's contribution from 0 to 1 over
// the cache's fade window. Non-resident pages contribute nothing.
func (im *Image) fadeAlpha(now, since int64, resident bool) float32 {
	if !resident {
		return 0
	}
	a := float32(now-since) / float32(im.cache.FadeWindow())
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}

// PageSample returns the layer's value for a unit sphere direction,
// sampled CPU-side and remapped by (k0, k1).
func (im *Image) PageSample(v [3]float64) float32 {
	return im.cache.PageSample(im.file, v)*(im.k1-im.k0) + im.k0
}

// PageBounds returns the layer's value bounds for a page, remapped by
// (k0, k1) on both ends.
func (im *Image) PageBounds(index int64) (minv, maxv float32) {
	r0, r1 := im.cache.PageBounds(im.file, index)
	minv = r0*(im.k1-im.k0) + im.k0
	maxv = r1*(im.k1-im.k0) + im.k0
	return minv, maxv
}

// PageStatus reports whether the layer's source holds data for a page.
func (im *Image) PageStatus(index int64) bool {
	return im.cache.PageStatus(im.file, index)
}

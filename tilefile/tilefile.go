// Package tilefile provides a disk-backed tile source: a directory of
// bordered page images, one file per page index, decoded and converted
// into the raw payload layout the page cache uploads.
//
// The layout is deliberately plain. A pyramid is a flat directory of
// "<index>.tif" (or .tiff, .png) files, each holding the full bordered
// slot image. Files whose dimensions do not match the configured page
// footprint are rescaled on read.
package tilefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Source errors.
var (
	// ErrNoPage is returned by ReadPage when no file exists for an index.
	ErrNoPage = errors.New("tilefile: no such page")

	// ErrBadConfig is returned by New for invalid configuration.
	ErrBadConfig = errors.New("tilefile: invalid configuration")
)

// extensions are tried in order when resolving a page index to a file.
var extensions = []string{".tif", ".tiff", ".png"}

// Config describes a tile directory and the payload layout to produce.
// The layout must match the cache the source is registered with.
type Config struct {
	// Dir is the pyramid directory.
	Dir string

	// PageSize is the page width and height in pixels, borders excluded.
	// Page files hold the bordered (PageSize+2)^2 image.
	PageSize int

	// Channels is the payload channel count (1, 2, or 4).
	Channels int

	// Depth is the payload bit depth per channel (8 or 16). 16-bit
	// payloads are encoded as half floats, matching the atlas format.
	Depth int
}

// Source reads pages from a tile directory. It is safe for concurrent
// ReadPage calls from multiple loader goroutines: decoding is stateless
// and the root sample image is built once.
type Source struct {
	dir   string
	pitch int // bordered page side in pixels
	chans int
	depth int

	rootOnce sync.Once
	root     image.Image // decoded page 0, for CPU-side sampling
}

// New creates a source over the given tile directory. The directory must
// exist; individual pages may be missing.
func New(cfg Config) (*Source, error) {
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("%w: page size %d", ErrBadConfig, cfg.PageSize)
	}
	switch cfg.Channels {
	case 1, 2, 4:
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrBadConfig, cfg.Channels)
	}
	switch cfg.Depth {
	case 8, 16:
	default:
		return nil, fmt.Errorf("%w: depth %d", ErrBadConfig, cfg.Depth)
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("tilefile: open %s: %w", cfg.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrBadConfig, cfg.Dir)
	}
	return &Source{
		dir:   cfg.Dir,
		pitch: cfg.PageSize + 2,
		chans: cfg.Channels,
		depth: cfg.Depth,
	}, nil
}

// path resolves a page index to an existing file, or "".
func (s *Source) path(index int64) string {
	for _, ext := range extensions {
		p := filepath.Join(s.dir, fmt.Sprintf("%d%s", index, ext))
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// decode opens and decodes one page file, rescaling to the bordered
// footprint when needed.
func (s *Source) decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	if filepath.Ext(path) == ".png" {
		img, err = png.Decode(f)
	} else {
		img, err = tiff.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("tilefile: decode %s: %w", path, err)
	}

	b := img.Bounds()
	if b.Dx() == s.pitch && b.Dy() == s.pitch {
		return img, nil
	}
	dst := image.NewRGBA64(image.Rect(0, 0, s.pitch, s.pitch))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

// ReadPage produces the bordered payload for a page, or ErrNoPage when
// the pyramid holds no file for the index.
func (s *Source) ReadPage(index int64) ([]byte, error) {
	path := s.path(index)
	if path == "" {
		return nil, fmt.Errorf("%w: %d", ErrNoPage, index)
	}
	img, err := s.decode(path)
	if err != nil {
		return nil, err
	}
	return s.payload(img), nil
}

// payload converts a decoded bordered image into the raw byte layout.
func (s *Source) payload(img image.Image) []byte {
	bpp := s.chans * s.depth / 8
	out := make([]byte, s.pitch*s.pitch*bpp)
	b := img.Bounds()

	i := 0
	for y := range s.pitch {
		for x := range s.pitch {
			r, g, bb, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			samples := []uint32{r, g, bb, a}[:s.chans]
			for _, v := range samples {
				if s.depth == 8 {
					out[i] = byte(v >> 8)
					i++
				} else {
					binary.LittleEndian.PutUint16(out[i:], float16bits(float32(v)/65535))
					i += 2
				}
			}
		}
	}
	return out
}

// PageAvailable reports whether the pyramid holds a file for the index.
func (s *Source) PageAvailable(index int64) bool {
	return s.path(index) != ""
}

// PageBounds scans a page for its normalized first-channel extrema. A
// missing or unreadable page reports the conservative full range.
func (s *Source) PageBounds(index int64) (minv, maxv float32) {
	path := s.path(index)
	if path == "" {
		return 0, 1
	}
	img, err := s.decode(path)
	if err != nil {
		return 0, 1
	}

	minv, maxv = 1, 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			v := float32(r) / 65535
			if v < minv {
				minv = v
			}
			if v > maxv {
				maxv = v
			}
		}
	}
	if minv > maxv {
		return 0, 1
	}
	return minv, maxv
}

// PageSample returns the root page's first-channel value under the unit
// sphere direction v, using an equirectangular projection. This is the
// coarse CPU-side sample used for camera height queries, not a pyramid
// descent.
func (s *Source) PageSample(v [3]float64) float32 {
	s.rootOnce.Do(func() {
		if path := s.path(0); path != "" {
			if img, err := s.decode(path); err == nil {
				s.root = img
			}
		}
	})
	if s.root == nil {
		return 0
	}

	lon := math.Atan2(v[1], v[0])
	lat := math.Asin(clamp(v[2], -1, 1))
	u := (lon + math.Pi) / (2 * math.Pi)
	w := 1 - (lat+math.Pi/2)/math.Pi // north at the top

	b := s.root.Bounds()
	x := b.Min.X + int(u*float64(b.Dx()-1)+0.5)
	y := b.Min.Y + int(w*float64(b.Dy()-1)+0.5)
	r, _, _, _ := s.root.At(x, y).RGBA()
	return float32(r) / 65535
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// float16bits converts a float32 to IEEE 754 half-precision bits, rounding
// toward zero. Inputs are normalized sample values, so overflow only
// matters as a guard.
func float16bits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b >> 16 & 0x8000) //nolint:gosec // G115: masked to 16 bits
	exp := int32(b>>23&0xff) - 127 + 15
	frac := b & 0x7fffff

	switch {
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		frac |= 0x800000
		return sign | uint16(frac>>uint32(14-exp)) //nolint:gosec // G115: shifted into 10 bits
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(frac>>13) //nolint:gosec // G115: masked fields
	}
}

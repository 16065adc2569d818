package tilefile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeGrayPage writes a side x side gray PNG for the given index.
func writeGrayPage(t *testing.T, dir string, index int64, side int, value uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, side, side))
	for y := range side {
		for x := range side {
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	writePNG(t, filepath.Join(dir, fmt.Sprintf("%d.png", index)), img)
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func testSource(t *testing.T, cfg Config) *Source {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero page size", Config{Dir: dir, PageSize: 0, Channels: 1, Depth: 8}},
		{"bad channels", Config{Dir: dir, PageSize: 2, Channels: 3, Depth: 8}},
		{"bad depth", Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, ErrBadConfig) {
				t.Errorf("err = %v, want ErrBadConfig", err)
			}
		})
	}

	if _, err := New(Config{Dir: filepath.Join(dir, "missing"), PageSize: 2, Channels: 1, Depth: 8}); err == nil {
		t.Error("New accepted a missing directory")
	}

	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{Dir: file, PageSize: 2, Channels: 1, Depth: 8}); !errors.Is(err, ErrBadConfig) {
		t.Errorf("err = %v for non-directory, want ErrBadConfig", err)
	}
}

func TestReadPage(t *testing.T) {
	dir := t.TempDir()
	writeGrayPage(t, dir, 7, 4, 200) // bordered side for PageSize 2

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 8})

	data, err := s.ReadPage(7)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("payload length = %d, want 16", len(data))
	}
	for i, b := range data {
		if b != 200 {
			t.Fatalf("payload[%d] = %d, want 200", i, b)
		}
	}

	if _, err := s.ReadPage(8); !errors.Is(err, ErrNoPage) {
		t.Errorf("missing page err = %v, want ErrNoPage", err)
	}
}

func TestReadPageRescales(t *testing.T) {
	dir := t.TempDir()
	writeGrayPage(t, dir, 0, 16, 100) // four times the bordered side

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 8})
	data, err := s.ReadPage(0)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("payload length = %d, want 16", len(data))
	}
	// A flat image stays flat through rescaling.
	for i, b := range data {
		if int(b) < 98 || int(b) > 102 {
			t.Fatalf("payload[%d] = %d, want about 100", i, b)
		}
	}
}

func TestReadPageChannels(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	writePNG(t, filepath.Join(dir, "0.png"), img)

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 4, Depth: 8})
	data, err := s.ReadPage(0)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if len(data) != 64 {
		t.Fatalf("payload length = %d, want 64", len(data))
	}
	if data[0] != 10 || data[1] != 20 || data[2] != 30 || data[3] != 255 {
		t.Errorf("first texel = %v, want 10 20 30 255", data[:4])
	}
}

func TestReadPageHalfFloat(t *testing.T) {
	dir := t.TempDir()
	writeGrayPage(t, dir, 0, 4, 255)

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 16})
	data, err := s.ReadPage(0)
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("payload length = %d, want 32", len(data))
	}
	// Full white is exactly 1.0 in half-float.
	if got := binary.LittleEndian.Uint16(data); got != 0x3c00 {
		t.Errorf("first sample = %#04x, want 0x3c00", got)
	}
}

func TestPageAvailable(t *testing.T) {
	dir := t.TempDir()
	writeGrayPage(t, dir, 3, 4, 1)

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 8})
	if !s.PageAvailable(3) {
		t.Error("PageAvailable(3) = false")
	}
	if s.PageAvailable(4) {
		t.Error("PageAvailable(4) = true for missing page")
	}
}

func TestPageBounds(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	img.SetGray(0, 0, color.Gray{Y: 64})
	img.SetGray(3, 3, color.Gray{Y: 192})
	writePNG(t, filepath.Join(dir, "5.png"), img)

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 8})

	minv, maxv := s.PageBounds(5)
	if math.Abs(float64(minv)-64.0/255.0) > 1e-4 {
		t.Errorf("min = %v, want about %v", minv, 64.0/255.0)
	}
	if math.Abs(float64(maxv)-192.0/255.0) > 1e-4 {
		t.Errorf("max = %v, want about %v", maxv, 192.0/255.0)
	}

	// Missing pages report the conservative full range.
	minv, maxv = s.PageBounds(99)
	if minv != 0 || maxv != 1 {
		t.Errorf("missing page bounds = %v, %v, want 0, 1", minv, maxv)
	}
}

func TestPageSample(t *testing.T) {
	dir := t.TempDir()
	writeGrayPage(t, dir, 0, 4, 128)

	s := testSource(t, Config{Dir: dir, PageSize: 2, Channels: 1, Depth: 8})
	for _, v := range [][3]float64{{0, 0, 1}, {1, 0, 0}, {0, -1, 0}, {0, 0, -1}} {
		got := s.PageSample(v)
		if math.Abs(float64(got)-128.0/255.0) > 1e-4 {
			t.Errorf("PageSample(%v) = %v, want about %v", v, got, 128.0/255.0)
		}
	}

	// No root page means no sample.
	empty := testSource(t, Config{Dir: t.TempDir(), PageSize: 2, Channels: 1, Depth: 8})
	if got := empty.PageSample([3]float64{0, 0, 1}); got != 0 {
		t.Errorf("PageSample without root = %v, want 0", got)
	}
}

func TestFloat16Bits(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint16
	}{
		{"zero", 0, 0x0000},
		{"one", 1, 0x3c00},
		{"half", 0.5, 0x3800},
		{"two", 2, 0x4000},
		{"negative one", -1, 0xbc00},
		{"tiny flushes", 1e-9, 0x0000},
		{"huge saturates", 1e9, 0x7c00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := float16bits(tt.in); got != tt.want {
				t.Errorf("float16bits(%v) = %#04x, want %#04x", tt.in, got, tt.want)
			}
		})
	}
}

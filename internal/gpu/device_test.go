package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		depth    int
		want     gputypes.TextureFormat
		wantErr  bool
	}{
		{"r8", 1, 8, gputypes.TextureFormatR8Unorm, false},
		{"rg8", 2, 8, gputypes.TextureFormatRG8Unorm, false},
		{"rgba8", 4, 8, gputypes.TextureFormatRGBA8Unorm, false},
		{"r16", 1, 16, gputypes.TextureFormatR16Float, false},
		{"rg16", 2, 16, gputypes.TextureFormatRG16Float, false},
		{"rgba16", 4, 16, gputypes.TextureFormatRGBA16Float, false},
		{"rgb rejected", 3, 8, 0, true},
		{"32-bit rejected", 4, 32, 0, true},
		{"zero rejected", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PixelFormat(tt.channels, tt.depth)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PixelFormat failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("PixelFormat = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromProviderRejectsNonProvider(t *testing.T) {
	if _, _, err := FromProvider(struct{}{}); !errors.Is(err, ErrBadProvider) {
		t.Errorf("err = %v, want ErrBadProvider", err)
	}
	if _, _, err := FromProvider(nil); !errors.Is(err, ErrBadProvider) {
		t.Errorf("err = %v, want ErrBadProvider", err)
	}
}

type nilProvider struct{}

func (nilProvider) HalDevice() any { return nil }
func (nilProvider) HalQueue() any  { return nil }

func TestFromProviderRejectsNilHandles(t *testing.T) {
	if _, _, err := FromProvider(nilProvider{}); !errors.Is(err, ErrBadProvider) {
		t.Errorf("err = %v, want ErrBadProvider", err)
	}
}

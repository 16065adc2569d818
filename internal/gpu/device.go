package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device-related errors.
var (
	// ErrNilDevice is returned when a nil hal.Device is supplied.
	ErrNilDevice = errors.New("scm: device is nil")

	// ErrNilQueue is returned when a nil hal.Queue is supplied.
	ErrNilQueue = errors.New("scm: queue is nil")

	// ErrBadProvider is returned when a device provider does not expose
	// usable HAL handles.
	ErrBadProvider = errors.New("scm: provider does not expose a HAL device")

	// ErrUnsupportedFormat is returned for channel/depth combinations
	// with no texture format mapping.
	ErrUnsupportedFormat = errors.New("scm: unsupported channel/depth combination")
)

// PixelFormat converts a channel count and bit depth into the wgpu
// texture format used for the atlas. 8-bit data maps to unorm formats;
// 16-bit data maps to float16 formats, the layout elevation sets ship in.
func PixelFormat(channels, depth int) (gputypes.TextureFormat, error) {
	switch {
	case channels == 1 && depth == 8:
		return gputypes.TextureFormatR8Unorm, nil
	case channels == 2 && depth == 8:
		return gputypes.TextureFormatRG8Unorm, nil
	case channels == 4 && depth == 8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case channels == 1 && depth == 16:
		return gputypes.TextureFormatR16Float, nil
	case channels == 2 && depth == 16:
		return gputypes.TextureFormatRG16Float, nil
	case channels == 4 && depth == 16:
		return gputypes.TextureFormatRGBA16Float, nil
	default:
		return 0, fmt.Errorf("%w: %d channels, %d bits", ErrUnsupportedFormat, channels, depth)
	}
}

// FromProvider extracts HAL handles from a shared device provider.
//
// The provider is typically a gpucontext.DeviceProvider supplied by a host
// application (e.g., gogpu) that also implements the HAL access methods.
// The structural check mirrors how gg's accelerators receive their device:
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func FromProvider(provider any) (hal.Device, hal.Queue, error) {
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, nil, ErrBadProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrBadProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrBadProvider)
	}
	return device, queue, nil
}

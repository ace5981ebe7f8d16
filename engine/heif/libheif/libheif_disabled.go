//go:build !cgo || noheif

package libheif

import (
	"errors"
	"unsafe"

	"github.com/spaghettifunk/heifloader/engine/heif"
)

// ErrUnavailable is returned by New when the binary was built without libheif.
// Build with cgo enabled and without the 'noheif' tag to get a working codec.
var ErrUnavailable = errors.New("libheif support is not compiled in")

type Codec struct{}

var _ heif.Codec = (*Codec)(nil)

func New() (*Codec, error) {
	return nil, ErrUnavailable
}

func Version() string {
	return "unavailable"
}

func (c *Codec) ContextAlloc() heif.Context { return nil }

func (c *Codec) ContextFree(heif.Context) {}

func (c *Codec) ContextReadFromMemoryWithoutCopy(heif.Context, []byte) heif.ErrorRecord {
	return unavailableRecord()
}

func (c *Codec) ContextGetPrimaryImageHandle(heif.Context) (heif.ImageHandle, heif.ErrorRecord) {
	return nil, unavailableRecord()
}

func (c *Codec) ImageHandleRelease(heif.ImageHandle) {}

func (c *Codec) DecodeImage(heif.ImageHandle, heif.Colorspace, heif.Chroma) (heif.Image, heif.ErrorRecord) {
	return nil, unavailableRecord()
}

func (c *Codec) ImageRelease(heif.Image) {}

func (c *Codec) ImageGetWidth(heif.Image, heif.Channel) int { return -1 }

func (c *Codec) ImageGetHeight(heif.Image, heif.Channel) int { return -1 }

func (c *Codec) ImageGetPlaneReadonly(heif.Image, heif.Channel) (unsafe.Pointer, int) {
	return nil, 0
}

func unavailableRecord() heif.ErrorRecord {
	return heif.ErrorRecord{
		Code:    heif.ErrorPluginLoadingError,
		Message: ErrUnavailable.Error(),
	}
}

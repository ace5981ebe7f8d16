//go:build cgo && !noheif

// Package libheif binds the libheif C library as a heif.Codec.
package libheif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/spaghettifunk/heifloader/engine/heif"
)

var (
	initOnce sync.Once
	initErr  error
)

// Codec calls straight into libheif. It holds no state of its own, so one
// value can serve concurrent decodes as far as libheif itself allows.
type Codec struct{}

var _ heif.Codec = (*Codec)(nil)

// New initialises libheif's plugin registry once per process and returns a
// codec bound to it. The registry is never torn down.
func New() (*Codec, error) {
	initOnce.Do(func() {
		if rec := toRecord(C.heif_init(nil)); !rec.OK() {
			initErr = fmt.Errorf("heif_init: %s (code: %d)", rec.Message, int32(rec.Code))
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	return &Codec{}, nil
}

func Version() string {
	return C.GoString(C.heif_get_version())
}

func toRecord(e C.struct_heif_error) heif.ErrorRecord {
	rec := heif.ErrorRecord{
		Code:    heif.ErrorCode(e.code),
		Subcode: int32(e.subcode),
	}
	if e.message != nil {
		rec.Message = C.GoString(e.message)
	}
	return rec
}

func (c *Codec) ContextAlloc() heif.Context {
	return heif.Context(unsafe.Pointer(C.heif_context_alloc()))
}

func (c *Codec) ContextFree(ctx heif.Context) {
	C.heif_context_free((*C.struct_heif_context)(ctx))
}

func (c *Codec) ContextReadFromMemoryWithoutCopy(ctx heif.Context, data []byte) heif.ErrorRecord {
	e := C.heif_context_read_from_memory_without_copy(
		(*C.struct_heif_context)(ctx),
		unsafe.Pointer(&data[0]),
		C.size_t(len(data)),
		nil,
	)
	return toRecord(e)
}

func (c *Codec) ContextGetPrimaryImageHandle(ctx heif.Context) (heif.ImageHandle, heif.ErrorRecord) {
	var handle *C.struct_heif_image_handle
	e := C.heif_context_get_primary_image_handle((*C.struct_heif_context)(ctx), &handle)
	return heif.ImageHandle(unsafe.Pointer(handle)), toRecord(e)
}

func (c *Codec) ImageHandleRelease(handle heif.ImageHandle) {
	C.heif_image_handle_release((*C.struct_heif_image_handle)(handle))
}

func (c *Codec) DecodeImage(handle heif.ImageHandle, colorspace heif.Colorspace, chroma heif.Chroma) (heif.Image, heif.ErrorRecord) {
	var img *C.struct_heif_image
	e := C.heif_decode_image(
		(*C.struct_heif_image_handle)(handle),
		&img,
		C.enum_heif_colorspace(colorspace),
		C.enum_heif_chroma(chroma),
		nil,
	)
	return heif.Image(unsafe.Pointer(img)), toRecord(e)
}

func (c *Codec) ImageRelease(img heif.Image) {
	C.heif_image_release((*C.struct_heif_image)(img))
}

func (c *Codec) ImageGetWidth(img heif.Image, channel heif.Channel) int {
	return int(C.heif_image_get_width((*C.struct_heif_image)(img), C.enum_heif_channel(channel)))
}

func (c *Codec) ImageGetHeight(img heif.Image, channel heif.Channel) int {
	return int(C.heif_image_get_height((*C.struct_heif_image)(img), C.enum_heif_channel(channel)))
}

func (c *Codec) ImageGetPlaneReadonly(img heif.Image, channel heif.Channel) (unsafe.Pointer, int) {
	var stride C.int
	plane := C.heif_image_get_plane_readonly((*C.struct_heif_image)(img), C.enum_heif_channel(channel), &stride)
	return unsafe.Pointer(plane), int(stride)
}

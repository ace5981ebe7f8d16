package heif

import "unsafe"

// Context, ImageHandle and Image are opaque pointers owned by the native
// codec. A nil value means the resource was never acquired.
type (
	Context     unsafe.Pointer
	ImageHandle unsafe.Pointer
	Image       unsafe.Pointer
)

type Colorspace int

const (
	ColorspaceUndefined  Colorspace = 99
	ColorspaceYCbCr      Colorspace = 0
	ColorspaceRGB        Colorspace = 1
	ColorspaceMonochrome Colorspace = 2
)

type Chroma int

const (
	ChromaUndefined             Chroma = 99
	ChromaMonochrome            Chroma = 0
	Chroma420                   Chroma = 1
	Chroma422                   Chroma = 2
	Chroma444                   Chroma = 3
	ChromaInterleavedRGB        Chroma = 10
	ChromaInterleavedRGBA       Chroma = 11
	ChromaInterleavedRRGGBBBE   Chroma = 12
	ChromaInterleavedRRGGBBAABE Chroma = 13
	ChromaInterleavedRRGGBBLE   Chroma = 14
	ChromaInterleavedRRGGBBAALE Chroma = 15
)

type Channel int

const (
	ChannelY           Channel = 0
	ChannelCb          Channel = 1
	ChannelCr          Channel = 2
	ChannelR           Channel = 3
	ChannelG           Channel = 4
	ChannelB           Channel = 5
	ChannelAlpha       Channel = 6
	ChannelInterleaved Channel = 10
)

// ErrorRecord is the Go view of libheif's struct heif_error.
type ErrorRecord struct {
	Code    ErrorCode
	Subcode int32
	Message string
}

func (e ErrorRecord) OK() bool {
	return e.Code == ErrorOk
}

// Codec is the subset of the libheif C API needed to decode a primary image.
// Every handle returned by an Alloc/Get/Decode method must be given back to
// the matching Free/Release method exactly once.
type Codec interface {
	ContextAlloc() Context
	ContextFree(ctx Context)
	// ContextReadFromMemoryWithoutCopy keeps a reference to data until the
	// context is freed. The caller must keep data valid and unmoved until then.
	ContextReadFromMemoryWithoutCopy(ctx Context, data []byte) ErrorRecord
	ContextGetPrimaryImageHandle(ctx Context) (ImageHandle, ErrorRecord)
	ImageHandleRelease(handle ImageHandle)
	DecodeImage(handle ImageHandle, colorspace Colorspace, chroma Chroma) (Image, ErrorRecord)
	ImageRelease(img Image)
	ImageGetWidth(img Image, channel Channel) int
	ImageGetHeight(img Image, channel Channel) int
	// ImageGetPlaneReadonly returns the first byte of the plane and its row
	// pitch in bytes. The memory belongs to img.
	ImageGetPlaneReadonly(img Image, channel Channel) (unsafe.Pointer, int)
}

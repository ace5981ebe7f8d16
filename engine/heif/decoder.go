// Package heif turns HEIF/HEIC bitstreams into tightly packed RGBA pixel
// buffers ready for texture creation. The native work is delegated to a Codec;
// this package owns the handle lifecycle and the pixel post-processing.
package heif

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"unsafe"
)

// Options controls the post-processing applied to the decoded plane.
type Options struct {
	// FlipY stores the bottom row first, as expected by renderers with a
	// bottom-left texture origin.
	FlipY bool
	// AsNormalMap applies ConvertToNormalMap after the (optional) flip.
	AsNormalMap bool
}

// PixelImage is an owned RGBA8 buffer of Width*Height*4 bytes, row-major.
type PixelImage struct {
	Pixels []byte
	Width  int
	Height int
}

// Row returns the texels of row y.
func (p *PixelImage) Row(y int) []byte {
	rowSize := p.Width * BytesPerPixel
	return p.Pixels[y*rowSize : (y+1)*rowSize]
}

// NRGBA wraps the buffer as a non-premultiplied image without copying.
func (p *PixelImage) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Pixels,
		Stride: p.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

type Decoder struct {
	codec     Codec
	copyInput bool
	// non-nil when decodes must not overlap
	mu *sync.Mutex
}

type DecoderOption func(*Decoder)

// WithSerializedDecodes runs one decode at a time. Use it when the linked
// codec build is not safe for concurrent independent contexts.
func WithSerializedDecodes() DecoderOption {
	return func(d *Decoder) {
		d.mu = &sync.Mutex{}
	}
}

// WithCopiedInput controls whether Decode clones the caller's buffer before
// handing it to the codec. It defaults to true.
func WithCopiedInput(copyInput bool) DecoderOption {
	return func(d *Decoder) {
		d.copyInput = copyInput
	}
}

func NewDecoder(codec Codec, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		codec:     codec,
		copyInput: true,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode decodes the primary image of data into RGBA8. data is never
// modified and is not referenced after Decode returns.
func (d *Decoder) Decode(data []byte, opts Options) (*PixelImage, error) {
	return d.decode(data, opts, d.copyInput)
}

// DecodeFile reads path and decodes it. Read failures are returned as *IOError.
func (d *Decoder) DecodeFile(path string, opts Options) (*PixelImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	// data is private to this call, no need to clone it again
	return d.decode(data, opts, false)
}

func (d *Decoder) decode(data []byte, opts Options, copyInput bool) (*PixelImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if d.mu != nil {
		d.mu.Lock()
		defer d.mu.Unlock()
	}

	input := data
	if copyInput {
		input = bytes.Clone(data)
	}

	// libheif keeps a pointer to input until the context is freed.
	var pinner runtime.Pinner
	pinner.Pin(&input[0])
	defer pinner.Unpin()

	ctx := d.codec.ContextAlloc()
	if ctx == nil {
		return nil, newDecodeError("heif_context_alloc", ErrorRecord{
			Code:    ErrorMemoryAllocationError,
			Message: "context allocation failed",
		})
	}
	defer d.codec.ContextFree(ctx)

	if rec := d.codec.ContextReadFromMemoryWithoutCopy(ctx, input); !rec.OK() {
		return nil, newDecodeError("heif_context_read_from_memory_without_copy", rec)
	}

	handle, rec := d.codec.ContextGetPrimaryImageHandle(ctx)
	if !rec.OK() {
		return nil, newDecodeError("heif_context_get_primary_image_handle", rec)
	}
	defer d.codec.ImageHandleRelease(handle)

	img, rec := d.codec.DecodeImage(handle, ColorspaceRGB, ChromaInterleavedRGBA)
	if !rec.OK() {
		return nil, newDecodeError("heif_decode_image", rec)
	}
	defer d.codec.ImageRelease(img)

	width := d.codec.ImageGetWidth(img, ChannelInterleaved)
	height := d.codec.ImageGetHeight(img, ChannelInterleaved)
	plane, stride := d.codec.ImageGetPlaneReadonly(img, ChannelInterleaved)

	rowSize := width * BytesPerPixel
	if width <= 0 || height <= 0 || plane == nil || stride < rowSize {
		return nil, fmt.Errorf("%w: %dx%d, stride %d", ErrInvalidPlane, width, height, stride)
	}

	// the last row may not be padded out to a full stride
	src := unsafe.Slice((*byte)(plane), (height-1)*stride+rowSize)
	pixels := make([]byte, rowSize*height)
	CopyPlane(pixels, src, width, height, stride, opts.FlipY)

	if opts.AsNormalMap {
		ConvertToNormalMap(pixels)
	}

	return &PixelImage{
		Pixels: pixels,
		Width:  width,
		Height: height,
	}, nil
}

// Package heiftest provides an in-memory heif.Codec that serves a fixed
// decoded image and tracks every native handle it hands out.
package heiftest

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"unsafe"

	"github.com/spaghettifunk/heifloader/engine/heif"
)

type handleKind string

const (
	kindContext handleKind = "context"
	kindHandle  handleKind = "image_handle"
	kindImage   handleKind = "image"
)

// Bitstream returns bytes the fake codec accepts as a valid HEIF file.
func Bitstream() []byte {
	return []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heicmeta")
}

// Corrupt returns bytes the fake codec rejects with Invalid_input.
func Corrupt() []byte {
	return []byte("\x00\x00\x00\x18ftyp")
}

// Codec is a heif.Codec backed by a Go byte slice. Failures can be injected
// per phase through the *Err fields.
type Codec struct {
	Width  int
	Height int
	Stride int
	Plane  []byte

	ReadErr   heif.ErrorRecord
	HandleErr heif.ErrorRecord
	DecodeErr heif.ErrorRecord
	// PanicOnPlane makes ImageGetPlaneReadonly panic, simulating a failure
	// that is not reported through a heif_error.
	PanicOnPlane bool

	mu       sync.Mutex
	live     map[unsafe.Pointer]handleKind
	allocs   map[handleKind]int
	releases map[handleKind]int
	misuse   []string
	lastRead []byte
}

var _ heif.Codec = (*Codec)(nil)

// New builds a codec whose decoded image is width x height, with padding
// extra bytes at the end of each row.
func New(width, height, padding int, pixel func(x, y int) color.NRGBA) *Codec {
	stride := width*heif.BytesPerPixel + padding
	plane := make([]byte, stride*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixel(x, y)
			i := y*stride + x*heif.BytesPerPixel
			plane[i], plane[i+1], plane[i+2], plane[i+3] = c.R, c.G, c.B, c.A
		}
		// poison the padding so stride mistakes show up in the output
		for i := y*stride + width*heif.BytesPerPixel; i < (y+1)*stride; i++ {
			plane[i] = 0xAB
		}
	}
	return &Codec{
		Width:  width,
		Height: height,
		Stride: stride,
		Plane:  plane,
	}
}

func Solid(width, height int, c color.NRGBA) *Codec {
	return New(width, height, 0, func(int, int) color.NRGBA { return c })
}

func (c *Codec) acquire(kind handleKind) unsafe.Pointer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		c.live = make(map[unsafe.Pointer]handleKind)
		c.allocs = make(map[handleKind]int)
		c.releases = make(map[handleKind]int)
	}
	p := unsafe.Pointer(new(byte))
	c.live[p] = kind
	c.allocs[kind]++
	return p
}

func (c *Codec) release(p unsafe.Pointer, kind handleKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	got, ok := c.live[p]
	switch {
	case !ok:
		c.misuse = append(c.misuse, fmt.Sprintf("release of unknown or already released %s", kind))
		return
	case got != kind:
		c.misuse = append(c.misuse, fmt.Sprintf("%s released as %s", got, kind))
	}
	delete(c.live, p)
	c.releases[kind]++
}

func (c *Codec) check(p unsafe.Pointer, kind handleKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live[p] != kind {
		c.misuse = append(c.misuse, fmt.Sprintf("use of %s that is not live", kind))
		return false
	}
	return true
}

func (c *Codec) ContextAlloc() heif.Context {
	return heif.Context(c.acquire(kindContext))
}

func (c *Codec) ContextFree(ctx heif.Context) {
	c.release(unsafe.Pointer(ctx), kindContext)
}

func (c *Codec) ContextReadFromMemoryWithoutCopy(ctx heif.Context, data []byte) heif.ErrorRecord {
	if !c.check(unsafe.Pointer(ctx), kindContext) {
		return heif.ErrorRecord{Code: heif.ErrorUsageError, Message: "invalid context"}
	}
	c.mu.Lock()
	c.lastRead = data
	c.mu.Unlock()
	if !c.ReadErr.OK() {
		return c.ReadErr
	}
	if len(data) < 12 || !bytes.Equal(data[4:8], []byte("ftyp")) {
		return heif.ErrorRecord{
			Code:    heif.ErrorInvalidInput,
			Subcode: 100,
			Message: "No ftyp box",
		}
	}
	return heif.ErrorRecord{}
}

func (c *Codec) ContextGetPrimaryImageHandle(ctx heif.Context) (heif.ImageHandle, heif.ErrorRecord) {
	if !c.check(unsafe.Pointer(ctx), kindContext) {
		return nil, heif.ErrorRecord{Code: heif.ErrorUsageError, Message: "invalid context"}
	}
	if !c.HandleErr.OK() {
		return nil, c.HandleErr
	}
	return heif.ImageHandle(c.acquire(kindHandle)), heif.ErrorRecord{}
}

func (c *Codec) ImageHandleRelease(handle heif.ImageHandle) {
	c.release(unsafe.Pointer(handle), kindHandle)
}

func (c *Codec) DecodeImage(handle heif.ImageHandle, colorspace heif.Colorspace, chroma heif.Chroma) (heif.Image, heif.ErrorRecord) {
	if !c.check(unsafe.Pointer(handle), kindHandle) {
		return nil, heif.ErrorRecord{Code: heif.ErrorUsageError, Message: "invalid image handle"}
	}
	if !c.DecodeErr.OK() {
		return nil, c.DecodeErr
	}
	if colorspace != heif.ColorspaceRGB || chroma != heif.ChromaInterleavedRGBA {
		return nil, heif.ErrorRecord{Code: heif.ErrorUnsupportedFeature, Message: "fake codec only produces interleaved RGBA"}
	}
	return heif.Image(c.acquire(kindImage)), heif.ErrorRecord{}
}

func (c *Codec) ImageRelease(img heif.Image) {
	c.release(unsafe.Pointer(img), kindImage)
}

func (c *Codec) ImageGetWidth(img heif.Image, channel heif.Channel) int {
	if !c.check(unsafe.Pointer(img), kindImage) || channel != heif.ChannelInterleaved {
		return -1
	}
	return c.Width
}

func (c *Codec) ImageGetHeight(img heif.Image, channel heif.Channel) int {
	if !c.check(unsafe.Pointer(img), kindImage) || channel != heif.ChannelInterleaved {
		return -1
	}
	return c.Height
}

func (c *Codec) ImageGetPlaneReadonly(img heif.Image, channel heif.Channel) (unsafe.Pointer, int) {
	if c.PanicOnPlane {
		panic("heiftest: plane access failed")
	}
	if !c.check(unsafe.Pointer(img), kindImage) || channel != heif.ChannelInterleaved || len(c.Plane) == 0 {
		return nil, 0
	}
	return unsafe.Pointer(&c.Plane[0]), c.Stride
}

// Allocs returns the total number of handles handed out.
func (c *Codec) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.allocs {
		n += v
	}
	return n
}

// Releases returns the total number of handles given back.
func (c *Codec) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.releases {
		n += v
	}
	return n
}

// LastRead returns the buffer most recently passed to the read call.
func (c *Codec) LastRead() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRead
}

// Verify reports leaked handles and any double or mismatched release.
func (c *Codec) Verify() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.misuse) > 0 {
		return fmt.Errorf("handle misuse: %v", c.misuse)
	}
	if len(c.live) > 0 {
		leaked := make(map[handleKind]int)
		for _, k := range c.live {
			leaked[k]++
		}
		return fmt.Errorf("leaked handles: %v", leaked)
	}
	return nil
}

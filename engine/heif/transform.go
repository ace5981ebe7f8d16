package heif

// BytesPerPixel is the size of one interleaved RGBA texel.
const BytesPerPixel = 4

// CopyPlane copies height rows of width RGBA texels from src, whose rows are
// stride bytes apart, into the tightly packed dst. With flipY the rows are
// written bottom-up so that dst row y holds src row height-1-y.
func CopyPlane(dst, src []byte, width, height, stride int, flipY bool) {
	rowSize := width * BytesPerPixel
	for y := 0; y < height; y++ {
		srcY := y
		if flipY {
			srcY = height - 1 - y
		}
		copy(dst[y*rowSize:(y+1)*rowSize], src[srcY*stride:srcY*stride+rowSize])
	}
}

// ConvertToNormalMap rewrites every (r, g, b, a) texel as (0xFF, g, g, r).
// The height value in green ends up in red and green, the original red moves
// to alpha and blue is dropped. The mapping is not reversible.
func ConvertToNormalMap(pix []byte) {
	for i := 0; i+BytesPerPixel <= len(pix); i += BytesPerPixel {
		r := pix[i]
		g := pix[i+1]
		pix[i] = 0xFF
		pix[i+1] = g
		pix[i+2] = g
		pix[i+3] = r
	}
}

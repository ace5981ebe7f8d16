package heif

import (
	"bytes"
	"testing"
)

func TestCopyPlane(t *testing.T) {
	// 2x3 image, stride 12 (4 bytes of padding per row)
	src := []byte{
		1, 1, 1, 1, 2, 2, 2, 2, 0xEE, 0xEE, 0xEE, 0xEE,
		3, 3, 3, 3, 4, 4, 4, 4, 0xEE, 0xEE, 0xEE, 0xEE,
		5, 5, 5, 5, 6, 6, 6, 6,
	}

	tests := []struct {
		name  string
		flipY bool
		want  []byte
	}{
		{
			name: "straight",
			want: []byte{
				1, 1, 1, 1, 2, 2, 2, 2,
				3, 3, 3, 3, 4, 4, 4, 4,
				5, 5, 5, 5, 6, 6, 6, 6,
			},
		},
		{
			name:  "flipped",
			flipY: true,
			want: []byte{
				5, 5, 5, 5, 6, 6, 6, 6,
				3, 3, 3, 3, 4, 4, 4, 4,
				1, 1, 1, 1, 2, 2, 2, 2,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, 2*3*4)
			CopyPlane(dst, src, 2, 3, 12, tt.flipY)
			if !bytes.Equal(dst, tt.want) {
				t.Errorf("got %v, want %v", dst, tt.want)
			}
		})
	}
}

func TestConvertToNormalMap(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{
			name:  "single texel",
			input: []byte{10, 20, 30, 40},
			want:  []byte{0xFF, 20, 20, 10},
		},
		{
			name:  "two texels",
			input: []byte{0, 128, 255, 255, 255, 0, 1, 2},
			want:  []byte{0xFF, 128, 128, 0, 0xFF, 0, 0, 255},
		},
		{
			name:  "empty",
			input: []byte{},
			want:  []byte{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := bytes.Clone(tt.input)
			ConvertToNormalMap(pix)
			if !bytes.Equal(pix, tt.want) {
				t.Errorf("got %v, want %v", pix, tt.want)
			}
		})
	}
}

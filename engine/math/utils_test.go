package math

import "testing"

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		width, height uint32
		want          int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{2, 1, 2},
		{3, 3, 2},
		{4, 4, 3},
		{256, 256, 9},
		{300, 7, 9},
		{1, 1024, 11},
	}
	for _, tt := range tests {
		if got := MipLevelCount(tt.width, tt.height); got != tt.want {
			t.Errorf("%dx%d: got %d, want %d", tt.width, tt.height, got, tt.want)
		}
	}
}

func TestHalveDimension(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1},
		{2, 1},
		{3, 1},
		{5, 2},
		{1024, 512},
	}
	for _, tt := range tests {
		if got := HalveDimension(tt.in); got != tt.want {
			t.Errorf("HalveDimension(%d): got %d, want %d", tt.in, got, tt.want)
		}
	}
}

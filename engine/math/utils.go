package math

import "golang.org/x/exp/constraints"

// Max returns the larger of a and b.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Log2Floor returns floor(log2(v)) for v > 0, and 0 otherwise.
func Log2Floor[T constraints.Integer](v T) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// MipLevelCount returns the number of levels of a full mip chain for a
// width x height image, down to and including 1x1.
func MipLevelCount[T constraints.Integer](width, height T) int {
	return Log2Floor(Max(width, height)) + 1
}

// HalveDimension returns the size of the next mip level along one axis.
func HalveDimension[T constraints.Integer](v T) T {
	return Max(v/2, 1)
}

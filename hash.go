package dicom

import (
	"math/bits"
	"unicode/utf16"
)

const (
	hashSeed = 53
	hashXor  = 137211941
	hashRot  = 27
	hashMask = 0x3fffffff
)

// SeriesHash is the grouping key of a series. It runs over the UTF-16 code
// units of s with 32-bit wrapping arithmetic.
func SeriesHash(s string) uint32 {
	units := utf16.Encode([]rune(s))
	h := uint32(len(units)) * hashSeed
	for _, c := range units {
		h *= uint32(c) ^ hashXor
		h = bits.RotateLeft32(h, hashRot) & hashMask
	}
	return h
}

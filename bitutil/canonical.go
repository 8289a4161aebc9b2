// Package bitutil holds the bit-twiddling shared by the board codec and the
// position enumerator: dihedral canonicalization of packed 8-lane words and
// set-bit iteration.
package bitutil

import (
	"iter"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Symmetric is a packed word of 8 equal-width lanes arranged in a cycle.
// Rotate moves every lane one position around the cycle; Reverse mirrors the
// lane order.
type Symmetric[T any] interface {
	constraints.Unsigned
	Rotate() T
	Reverse() T
}

// Canonicalize returns the smallest member of the 16-element orbit of x
// under the rotations of the cycle and their mirror images.
func Canonicalize[T Symmetric[T]](x T) T {
	out := x
	tmp := x
	for range 7 {
		tmp = tmp.Rotate()
		out = min(out, tmp)
	}
	tmp = tmp.Reverse()
	out = min(out, tmp)
	for range 7 {
		tmp = tmp.Rotate()
		out = min(out, tmp)
	}
	return out
}

// RotateNibbles rotates a word of 8 nibbles by one nibble.
func RotateNibbles(x uint32) uint32 {
	return bits.RotateLeft32(x, 4)
}

// ReverseNibbles reverses the nibble order of x, keeping the bit order
// inside each nibble.
func ReverseNibbles(x uint32) uint32 {
	x = ((x & 0xf0f0f0f0) >> 4) | ((x & 0x0f0f0f0f) << 4)
	x = ((x & 0xff00ff00) >> 8) | ((x & 0x00ff00ff) << 8)
	x = ((x & 0xffff0000) >> 16) | ((x & 0x0000ffff) << 16)
	return x
}

// HotBits yields the index of every set bit of x, lowest first.
func HotBits(x uint32) iter.Seq[int] {
	return func(yield func(int) bool) {
		for x != 0 {
			i := bits.TrailingZeros32(x)
			if !yield(i) {
				return
			}
			x &= x - 1
		}
	}
}

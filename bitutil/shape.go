package bitutil

import "math/bits"

// Shape records how many stones each of the 8 columns holds, 2 bits per
// column, column 0 in the lowest bits. Colours are not part of a shape.
type Shape uint16

func (s Shape) Rotate() Shape {
	return Shape(bits.RotateLeft16(uint16(s), 2))
}

func (s Shape) Reverse() Shape {
	x := uint16(s)
	x = ((x & 0xcccc) >> 2) | ((x & 0x3333) << 2)
	x = ((x & 0xf0f0) >> 4) | ((x & 0x0f0f) << 4)
	x = ((x & 0xff00) >> 8) | ((x & 0x00ff) << 8)
	return Shape(x)
}

// Height is the number of stones in column c.
func (s Shape) Height(c int) int {
	return int(s>>(2*c)) & 0b11
}

// Stones is the total number of stones over all columns.
func (s Shape) Stones() int {
	n := 0
	for c := range 8 {
		n += s.Height(c)
	}
	return n
}

package board

import (
	"fmt"
	"math/bits"

	"github.com/domino14/stackring/bitutil"
)

// ID packs a board into 32 bits, one nibble per column. A column nibble is
// its black bits plus a stop bit one above the top occupied slot, so an
// empty column is 0b0001 and a nibble of zero never occurs.
type ID uint32

func (id ID) Rotate() ID {
	return ID(bitutil.RotateNibbles(uint32(id)))
}

func (id ID) Reverse() ID {
	return ID(bitutil.ReverseNibbles(uint32(id)))
}

// Canonical returns the smallest ID among the 16 symmetric images.
func (id ID) Canonical() ID {
	return bitutil.Canonicalize(id)
}

func (id ID) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

func (b Board) ID() ID {
	var id uint32
	occ := b.occupied()
	blk := b.black
	for c := range NumColumns {
		shift := 4 * c
		part := (((occ >> shift) & 0xf) + 1) | ((blk >> shift) & 0xf)
		id |= part << shift
	}
	return ID(id)
}

func (b Board) CanonicalID() ID {
	return b.ID().Canonical()
}

// Decode rebuilds a board from an ID. An ID with a zero nibble was not
// produced by this package and is rejected.
func Decode(id ID) (Board, error) {
	var b Board
	for c := range NumColumns {
		shift := 4 * c
		part := (uint32(id) >> shift) & 0xf
		if part == 0 {
			return Board{}, fmt.Errorf("%w: %v has an empty nibble at column %d",
				ErrInvalidEncoding, id, c)
		}
		mask := uint32(1)<<(bits.Len32(part)-1) - 1
		blk := part & mask
		b.black |= blk << shift
		b.white |= (blk ^ mask) << shift
	}
	return b, nil
}

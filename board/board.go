// Package board implements the rules of the ring stacking game: eight
// columns arranged in a cycle, each holding a bottom-inserted stack of up to
// three stones. Players first place their stones one at a time; once all 16
// stones are down they move them instead. A player wins by owning the bottom
// stone of four cyclically consecutive columns (a ring line) or all three
// stones of one column (a tower).
package board

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/domino14/stackring/bitutil"
)

const (
	NumColumns   = 8
	ColumnHeight = 3
	MaxStones    = 16
)

var (
	ErrIllegalAction   = errors.New("illegal action")
	ErrInvalidEncoding = errors.New("invalid board id")
)

// bit 4c of bottomSlots is slot 0 of column c.
const bottomSlots uint32 = 0x1111_1111

var adjacency [NumColumns][3]int

func init() {
	for c := range NumColumns {
		adj := [3]int{(c + 1) % NumColumns, (c + 4) % NumColumns, (c + 7) % NumColumns}
		slices.Sort(adj[:])
		adjacency[c] = adj
	}
}

// Adjacent returns the columns a stone at the bottom of column c can move
// to: its two ring neighbours and the column across the ring, ascending.
func Adjacent(c int) [3]int {
	return adjacency[c]
}

func slotBit(c, slot int) uint32 {
	return 1 << (4*c + slot)
}

// Board is a position. Each colour has its own bitset; column c uses bits
// 4c (slot 0, the bottom) to 4c+2 (slot 2, the top) and bit 4c+3 is always
// clear. The zero value is the empty board.
type Board struct {
	black uint32
	white uint32
}

func (b *Board) bits(c Color) *uint32 {
	if c == Black {
		return &b.black
	}
	return &b.white
}

func (b Board) own(c Color) uint32 {
	if c == Black {
		return b.black
	}
	return b.white
}

func (b Board) occupied() uint32 {
	return b.black | b.white
}

func (b Board) NumStones() int {
	return bits.OnesCount32(b.occupied())
}

// CanonicalPlayer is the player on turn, derived from stone-count parity.
// In the movement phase the count is always 16 so this is always Black;
// solved positions are stored from the mover's point of view.
func (b Board) CanonicalPlayer() Color {
	if b.NumStones()%2 == 0 {
		return Black
	}
	return White
}

// Height is the number of stones in column c.
func (b Board) Height(c int) int {
	return bits.OnesCount32((b.occupied() >> (4 * c)) & 0b111)
}

// At reports the colour of the stone at the given slot, if any.
func (b Board) At(c, slot int) (Color, bool) {
	bit := slotBit(c, slot)
	switch {
	case b.black&bit != 0:
		return Black, true
	case b.white&bit != 0:
		return White, true
	}
	return Black, false
}

// Full reports whether column c has no room left.
func (b Board) Full(c int) bool {
	return b.occupied()&slotBit(c, ColumnHeight-1) != 0
}

func (b Board) LegalActions(player Color) []Action {
	return b.AppendLegalActions(nil, player)
}

// AppendLegalActions appends the legal actions of player to dst. With 16
// stones on the board these are moves of player's bottom stones; before
// that they are puts, and only the player on turn has any.
func (b Board) AppendLegalActions(dst []Action, player Color) []Action {
	// bit 4c is set iff column c can take another stone
	open := bottomSlots & (^b.occupied() >> 2)

	if b.NumStones() == MaxStones {
		for f := range bitutil.HotBits(bottomSlots & b.own(player)) {
			from := f / 4
			for _, to := range adjacency[from] {
				if open&slotBit(to, 0) != 0 {
					dst = append(dst, NewMove(from, to))
				}
			}
		}
		return dst
	}

	if player != b.CanonicalPlayer() {
		return dst
	}
	for t := range bitutil.HotBits(open) {
		dst = append(dst, NewPut(player, t/4))
	}
	return dst
}

// put inserts a stone at the bottom of column c. Occupants move up one slot
// and anything pushed past the top is dropped.
func (b *Board) put(player Color, c int) {
	shift := 4 * c
	lower := uint32(0b0011) << shift
	outer := ^(uint32(0b1111) << shift)

	own := b.bits(player)
	*own = (*own & outer) | ((*own & lower) << 1) | slotBit(c, 0)
	other := b.bits(player.Opponent())
	*other = (*other & outer) | ((*other & lower) << 1)
}

// remove takes the bottom stone out of column c and lets the rest of the
// column drop down.
func (b *Board) remove(c int) (Color, bool) {
	color, ok := b.At(c, 0)
	if !ok {
		return Black, false
	}
	shift := 4 * c
	upper := uint32(0b0110) << shift
	outer := ^(uint32(0b1111) << shift)
	b.black = (b.black & outer) | ((b.black & upper) >> 1)
	b.white = (b.white & outer) | ((b.white & upper) >> 1)
	return color, true
}

func (b *Board) apply(a Action) {
	switch a.Type {
	case ActionPut:
		b.put(a.Player, a.To)
	case ActionMove:
		if color, ok := b.remove(a.From); ok {
			b.put(color, a.To)
		}
	}
}

// After returns a copy of the board with a applied. a must come from
// LegalActions; nothing is checked.
func (b Board) After(a Action) Board {
	b.apply(a)
	return b
}

// Perform applies a if it is legal. A put must be legal for a.Player and a
// move must be legal for the owner of the stone it lifts. On error the board
// is left untouched.
func (b *Board) Perform(a Action) error {
	player := a.Player
	if a.Type == ActionMove {
		if a.From < 0 || a.From >= NumColumns {
			return fmt.Errorf("%w: %v: no column %d", ErrIllegalAction, a, a.From)
		}
		color, ok := b.At(a.From, 0)
		if !ok {
			return fmt.Errorf("%w: %v: column %d is empty", ErrIllegalAction, a, a.From)
		}
		player = color
		a = NewMove(a.From, a.To)
	}
	if !slices.Contains(b.LegalActions(player), a) {
		return fmt.Errorf("%w: %v", ErrIllegalAction, a)
	}
	b.apply(a)
	return nil
}

// LinesUp reports whether player owns a ring line or a tower.
func (b Board) LinesUp(player Color) bool {
	own := b.own(player)
	ring := uint32(0x1111)
	tower := uint32(0b0111)
	for range NumColumns {
		if own&ring == ring || own&tower == tower {
			return true
		}
		ring = bits.RotateLeft32(ring, 4)
		tower <<= 4
	}
	return false
}

// SwapColor exchanges the two colours. It is used when the position is
// handed to the other player in the movement phase.
func (b *Board) SwapColor() {
	b.black, b.white = b.white, b.black
}

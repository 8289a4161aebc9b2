package board

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders one line per column, bottom slot first:
//
//	0: BW
//	1:
//	2: W
func (b Board) String() string {
	var sb strings.Builder
	for c, col := range b.Columns() {
		if c > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(c))
		sb.WriteString(": ")
		sb.WriteString(col)
	}
	return sb.String()
}

// Columns returns each column as a bottom-first string of B and W markers.
func (b Board) Columns() [NumColumns]string {
	var cols [NumColumns]string
	for c := range NumColumns {
		var sb strings.Builder
		for slot := range ColumnHeight {
			color, ok := b.At(c, slot)
			if !ok {
				break
			}
			sb.WriteString(color.String())
		}
		cols[c] = sb.String()
	}
	return cols
}

// FromColumns builds a board from 8 bottom-first column strings such as
// "BW". An empty string or "-" is an empty column.
func FromColumns(cols []string) (Board, error) {
	var b Board
	if len(cols) != NumColumns {
		return b, fmt.Errorf("need %d columns, got %d", NumColumns, len(cols))
	}
	for c, col := range cols {
		if col == "-" {
			continue
		}
		if len(col) > ColumnHeight {
			return Board{}, fmt.Errorf("column %d holds %d stones; the limit is %d",
				c, len(col), ColumnHeight)
		}
		for slot, r := range col {
			color, err := ParseColor(string(r))
			if err != nil {
				return Board{}, fmt.Errorf("column %d: %w", c, err)
			}
			*b.bits(color) |= slotBit(c, slot)
		}
	}
	return b, nil
}

package board

import "fmt"

// Color is the colour of a stone, and by extension the player who owns it.
// Black always moves first.
type Color uint8

const (
	Black Color = iota
	White
)

// Opponent returns the other colour.
func (c Color) Opponent() Color {
	return 1 - c
}

func (c Color) String() string {
	switch c {
	case Black:
		return "B"
	case White:
		return "W"
	}
	return fmt.Sprintf("Color(%d)", uint8(c))
}

// ParseColor accepts "B"/"W" in either case.
func ParseColor(s string) (Color, error) {
	switch s {
	case "B", "b":
		return Black, nil
	case "W", "w":
		return White, nil
	}
	return Black, fmt.Errorf("unknown color %q", s)
}

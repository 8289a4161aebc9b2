package retrograde

import "github.com/domino14/stackring/board"

// Class is the outcome of looking at a position without searching.
type Class uint8

const (
	// WinsDefinitely: only the player on turn has a line.
	WinsDefinitely Class = iota
	// LosesDefinitely: only the opponent has a line.
	LosesDefinitely
	// BothLineUp: both players have a line.
	BothLineUp
	// LosesPassively: nobody has a line and the player on turn has at most
	// one action.
	LosesPassively
)

func (c Class) String() string {
	switch c {
	case WinsDefinitely:
		return "wins-definitely"
	case LosesDefinitely:
		return "loses-definitely"
	case BothLineUp:
		return "both-line-up"
	case LosesPassively:
		return "loses-passively"
	}
	return "unknown"
}

// Outcome reports where a canonical position sits once the solver has
// placed it. Wins and losses are from the point of view of the player on
// turn.
type Outcome uint8

const (
	Win Outcome = iota + 1
	Lose
	Both
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Both:
		return "both"
	}
	return "unknown"
}

// Outcome maps a class to the set it seeds.
func (c Class) Outcome() Outcome {
	switch c {
	case WinsDefinitely:
		return Win
	case BothLineUp:
		return Both
	}
	return Lose
}

// Classify applies the immediate rules to b. ok is false when the position
// needs backward analysis.
func Classify(b board.Board) (Class, bool) {
	player := b.CanonicalPlayer()
	mine := b.LinesUp(player)
	theirs := b.LinesUp(player.Opponent())
	switch {
	case mine && theirs:
		return BothLineUp, true
	case mine:
		return WinsDefinitely, true
	case theirs:
		return LosesDefinitely, true
	case len(b.LegalActions(player)) <= 1:
		return LosesPassively, true
	}
	return 0, false
}

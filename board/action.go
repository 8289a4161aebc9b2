package board

import "fmt"

// ActionType is either a placement or a movement.
type ActionType uint8

const (
	ActionPut ActionType = iota
	ActionMove
)

func (t ActionType) String() string {
	switch t {
	case ActionPut:
		return "put"
	case ActionMove:
		return "move"
	}
	return fmt.Sprintf("ActionType(%d)", uint8(t))
}

// Action is a transient move descriptor. A put drops a stone of Player into
// column To; a move lifts the bottom stone of column From and inserts it at
// the bottom of column To. Player is unused for moves, and From is unused
// for puts. Actions are comparable and can key maps.
type Action struct {
	Type   ActionType
	Player Color
	From   int
	To     int
}

func NewPut(player Color, target int) Action {
	return Action{Type: ActionPut, Player: player, To: target}
}

func NewMove(from, to int) Action {
	return Action{Type: ActionMove, From: from, To: to}
}

func (a Action) String() string {
	if a.Type == ActionPut {
		return fmt.Sprintf("put(%s,%d)", a.Player, a.To)
	}
	return fmt.Sprintf("move(%d,%d)", a.From, a.To)
}

// Less orders actions by type, then source, then target, then player.
func (a Action) Less(o Action) bool {
	if a.Type != o.Type {
		return a.Type < o.Type
	}
	if a.From != o.From {
		return a.From < o.From
	}
	if a.To != o.To {
		return a.To < o.To
	}
	return a.Player < o.Player
}

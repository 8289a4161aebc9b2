// Package evaluator scores the legal actions of a live position using a
// solved game.
package evaluator

import (
	"slices"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/retrograde"
)

type Evaluator struct {
	result   *retrograde.Result
	maxDepth int
}

func New(r *retrograde.Result) *Evaluator {
	return &Evaluator{result: r, maxDepth: r.MaxDepth()}
}

type ScoredAction struct {
	Action board.Action
	Score  int
}

// Score rates a canonical successor ID for the player who moved into it.
// Higher is better; unknown positions score 0.
func (e *Evaluator) Score(id board.ID) int {
	outcome, depth, ok := e.result.Lookup(id)
	if !ok {
		return 0
	}
	switch outcome {
	case retrograde.Both:
		return e.maxDepth
	case retrograde.Win:
		// the opponent wins from here; later is less bad
		return -e.maxDepth + depth
	case retrograde.Lose:
		return e.maxDepth - depth
	}
	return 0
}

func (e *Evaluator) successor(b board.Board, a board.Action, next board.Color) board.ID {
	s := b.After(a)
	if b.NumStones() == board.MaxStones && next == board.Black {
		s.SwapColor()
	}
	return s.CanonicalID()
}

// Evaluate scores every legal action of next on b.
func (e *Evaluator) Evaluate(b board.Board, next board.Color) map[board.Action]int {
	actions := b.LegalActions(next)
	scores := make(map[board.Action]int, len(actions))
	for _, a := range actions {
		scores[a] = e.Score(e.successor(b, a, next))
	}
	return scores
}

// Ranked returns the legal actions of next, best first. Equal scores keep
// the action order.
func (e *Evaluator) Ranked(b board.Board, next board.Color) []ScoredAction {
	actions := b.LegalActions(next)
	ranked := make([]ScoredAction, len(actions))
	for i, a := range actions {
		ranked[i] = ScoredAction{Action: a, Score: e.Score(e.successor(b, a, next))}
	}
	slices.SortStableFunc(ranked, func(x, y ScoredAction) int {
		if x.Score != y.Score {
			return y.Score - x.Score
		}
		switch {
		case x.Action.Less(y.Action):
			return -1
		case y.Action.Less(x.Action):
			return 1
		}
		return 0
	})
	return ranked
}

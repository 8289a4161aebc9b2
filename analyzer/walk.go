package analyzer

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/evaluator"
)

type Step struct {
	Ply    int
	Player board.Color
	Action board.Action
	Score  int
	// Board is the position after Action.
	Board board.Board
}

// pick returns the action at the given rank, 0 being the best. A rank past
// the end picks the worst action. With randomTies, any action sharing the
// picked score may be chosen.
func pick(ranked []evaluator.ScoredAction, rank int, randomTies bool) evaluator.ScoredAction {
	chosen := ranked[min(rank, len(ranked)-1)]
	if !randomTies {
		return chosen
	}
	var tied []evaluator.ScoredAction
	for _, s := range ranked {
		if s.Score == chosen.Score {
			tied = append(tied, s)
		}
	}
	return tied[frand.Intn(len(tied))]
}

// Walk plays steps plies from start, each time choosing the rank-th best
// action for the player on turn. It stops early when a player has no
// action.
func (an *Analyzer) Walk(start board.Board, player board.Color, steps, rank int,
	randomTies bool) []Step {

	b := start
	var walk []Step
	for ply := 1; ply <= steps; ply++ {
		ranked := an.eval.Ranked(b, player)
		if len(ranked) == 0 {
			log.Debug().Int("ply", ply).Str("player", player.String()).Msg("walk-no-actions")
			break
		}
		s := pick(ranked, rank, randomTies)
		b = b.After(s.Action)
		walk = append(walk, Step{Ply: ply, Player: player, Action: s.Action, Score: s.Score, Board: b})
		player = player.Opponent()
	}
	return walk
}

// Frontier starts from the empty board and at every ply follows each action
// scoring the same as the rank-th best one. It returns how many distinct
// canonical positions are reached at each ply.
func (an *Analyzer) Frontier(plies, rank int) ([]int, error) {
	var empty board.Board
	frontier := []board.ID{empty.CanonicalID()}
	sizes := make([]int, 0, plies)
	for ply := 1; ply <= plies && len(frontier) > 0; ply++ {
		next := make(map[board.ID]struct{})
		for _, id := range frontier {
			b, err := board.Decode(id)
			if err != nil {
				return nil, fmt.Errorf("ply %d: %w", ply, err)
			}
			ranked := an.eval.Ranked(b, b.CanonicalPlayer())
			if len(ranked) == 0 {
				continue
			}
			target := ranked[min(rank, len(ranked)-1)].Score
			for _, s := range ranked {
				if s.Score != target {
					continue
				}
				succ := b.After(s.Action)
				if b.NumStones() == board.MaxStones {
					succ.SwapColor()
				}
				next[succ.CanonicalID()] = struct{}{}
			}
		}
		frontier = lo.Keys(next)
		sizes = append(sizes, len(frontier))
		log.Debug().Int("ply", ply).Int("positions", len(frontier)).Msg("frontier")
	}
	return sizes, nil
}

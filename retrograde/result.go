package retrograde

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/stackring/board"
)

// Result is a solved game. Wins[n] and Loses[n] hold the canonical IDs
// classified in round n, where round 0 is the seed; each list is sorted.
type Result struct {
	Wins       [][]board.ID
	Loses      [][]board.ID
	Both       []board.ID
	Unresolved []board.ID
	// Budget is the round limit the result was solved with.
	Budget int

	index map[board.ID]entry
}

// NewResult builds a result from histories solved elsewhere. The sets are
// expected to be disjoint; where they are not, Both takes precedence over
// Wins, and Wins over Loses.
func NewResult(wins, loses [][]board.ID, both []board.ID, budget int) *Result {
	r := &Result{Wins: wins, Loses: loses, Both: both, Budget: budget}
	r.index = make(map[board.ID]entry)
	for n := len(loses) - 1; n >= 0; n-- {
		for _, id := range loses[n] {
			r.index[id] = entry{outcome: Lose, depth: uint16(n)}
		}
	}
	for n := len(wins) - 1; n >= 0; n-- {
		for _, id := range wins[n] {
			r.index[id] = entry{outcome: Win, depth: uint16(n)}
		}
	}
	for _, id := range both {
		r.index[id] = entry{outcome: Both}
	}
	return r
}

// Lookup reports what is known about a canonical ID. depth is the round the
// ID was classified in; it is zero for Both.
func (r *Result) Lookup(id board.ID) (Outcome, int, bool) {
	e, ok := r.index[id]
	if !ok {
		return 0, 0, false
	}
	return e.outcome, int(e.depth), true
}

// MaxDepth is one more than any depth a classified position can have.
func (r *Result) MaxDepth() int {
	return r.Budget + 1
}

// Forecast tells who wins b with best play and in how many plies. The
// player on turn is b's canonical player.
type Forecast struct {
	Decided bool
	Winner  board.Color
	Plies   int
}

func (r *Result) Forecast(b board.Board) Forecast {
	outcome, depth, ok := r.Lookup(b.CanonicalID())
	mover := b.CanonicalPlayer()
	switch {
	case !ok:
		return Forecast{}
	case outcome == Win:
		return Forecast{Decided: true, Winner: mover, Plies: depth}
	case outcome == Lose:
		return Forecast{Decided: true, Winner: mover.Opponent(), Plies: depth}
	}
	return Forecast{}
}

// Digest hashes every set in order. Two solves of the same universe with the
// same budget produce the same digest regardless of thread count.
func (r *Result) Digest() uint64 {
	h := xxhash.New()
	buf := make([]byte, 0, 4096)
	write := func(ids []board.ID) {
		buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(len(ids)))
		for _, id := range ids {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
			if len(buf) >= 4092 {
				h.Write(buf)
				buf = buf[:0]
			}
		}
		h.Write(buf)
	}
	for _, ids := range r.Wins {
		write(ids)
	}
	for _, ids := range r.Loses {
		write(ids)
	}
	write(r.Both)
	write(r.Unresolved)
	return h.Sum64()
}

type Summary struct {
	Wins       int
	Loses      int
	Both       int
	Unresolved int
	// Rounds is the last round that classified anything.
	Rounds          int
	MeanWinDepth    float64
	StdDevWinDepth  float64
	MeanLoseDepth   float64
	StdDevLoseDepth float64
}

func depthStats(history [][]board.ID) (int, float64, float64) {
	depths := make([]float64, len(history))
	weights := make([]float64, len(history))
	for n, ids := range history {
		depths[n] = float64(n)
		weights[n] = float64(len(ids))
	}
	total := lo.Sum(weights)
	if total == 0 {
		return 0, 0, 0
	}
	mean, std := stat.MeanStdDev(depths, weights)
	if math.IsNaN(std) {
		std = 0
	}
	return int(total), mean, std
}

func (r *Result) Summary() Summary {
	s := Summary{Both: len(r.Both), Unresolved: len(r.Unresolved)}
	s.Wins, s.MeanWinDepth, s.StdDevWinDepth = depthStats(r.Wins)
	s.Loses, s.MeanLoseDepth, s.StdDevLoseDepth = depthStats(r.Loses)
	counts := r.DepthCounts()
	for n := len(counts) - 1; n > 0; n-- {
		if counts[n] > 0 {
			s.Rounds = n
			break
		}
	}
	return s
}

// DepthCounts returns how many positions were classified in each round,
// wins and losses together.
func (r *Result) DepthCounts() []int {
	counts := make([]int, max(len(r.Wins), len(r.Loses)))
	for n := range counts {
		if n < len(r.Wins) {
			counts[n] += len(r.Wins[n])
		}
		if n < len(r.Loses) {
			counts[n] += len(r.Loses[n])
		}
	}
	return counts
}

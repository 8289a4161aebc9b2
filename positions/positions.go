// Package positions enumerates every canonical board reachable with a given
// number of stones. Boards are built shape first (how tall each column is)
// and then coloured, so only placements that respect the alternating colour
// balance are generated.
package positions

import (
	"context"
	"math/bits"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/stackring/bitutil"
	"github.com/domino14/stackring/board"
)

// Set sizes per stone count. They only pre-size the maps.
var (
	shapeCapacity = [board.MaxStones + 1]int{
		1, 1, 5, 10, 28, 52, 105, 167, 265, 352, 454, 506, 543, 506, 454, 352, 265,
	}
	idCapacity = [board.MaxStones + 1]int{
		1, 1, 6, 27, 139, 478, 1826, 5487, 16933, 42192, 106332, 223700, 468444,
		829912, 1444680, 2144640, 3078229,
	}
)

func inRange(numStones int) bool {
	return numStones >= 0 && numStones <= board.MaxStones
}

// FindShapes returns the canonical shapes holding numStones stones, sorted.
func FindShapes(numStones int) []bitutil.Shape {
	if !inRange(numStones) {
		return nil
	}
	shapes := make(map[bitutil.Shape]struct{}, shapeCapacity[numStones])
	for raw := range 1 << 16 {
		s := bitutil.Shape(raw)
		if s.Stones() != numStones {
			continue
		}
		shapes[bitutil.Canonicalize(s)] = struct{}{}
	}
	out := lo.Keys(shapes)
	slices.Sort(out)
	return out
}

// boardID colours a shape. pattern holds one bit per stone, column 0's
// stones first and bottom slot first within a column; a set bit is black.
func boardID(shape bitutil.Shape, pattern uint32) board.ID {
	var id uint32
	for c := range board.NumColumns {
		n := shape.Height(c)
		mask := uint32(1)<<n - 1
		id |= ((pattern & mask) | (mask + 1)) << (4 * c)
		pattern >>= n
	}
	return board.ID(id)
}

// FindBoardIDs returns the canonical IDs of every board with numStones
// stones of which ceil(numStones/2) are black, sorted ascending.
func FindBoardIDs(numStones int) []board.ID {
	if !inRange(numStones) {
		return nil
	}
	numBlack := (numStones + 1) / 2
	maxPattern := uint32(1)<<numStones - 1

	ids := make(map[board.ID]struct{}, idCapacity[numStones])
	for _, shape := range FindShapes(numStones) {
		for pattern := uint32(0); pattern <= maxPattern; pattern++ {
			if bits.OnesCount32(pattern) != numBlack {
				continue
			}
			ids[boardID(shape, pattern).Canonical()] = struct{}{}
		}
	}
	out := lo.Keys(ids)
	slices.Sort(out)
	return out
}

// Reachable returns the canonical IDs for every stone count from 0 to 16,
// sorted ascending. Stone counts are enumerated concurrently.
func Reachable(ctx context.Context, threads int) ([]board.ID, error) {
	perCount := make([][]board.ID, board.MaxStones+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, threads))
	for n := range perCount {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perCount[n] = FindBoardIDs(n)
			log.Debug().Int("stones", n).Int("ids", len(perCount[n])).Msg("enumerated-board-ids")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	all := slices.Concat(perCount...)
	// different stone counts never share an ID, so sorting is enough
	slices.Sort(all)
	return all, nil
}

package retrograde

import (
	"bytes"
	"context"
	"errors"
	"io"
	"runtime"
	"slices"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/positions"
)

// smallUniverse holds every position with at most eight stones. Successors
// of the eight-stone positions fall outside it and stay unknown.
func smallUniverse() []board.ID {
	var ids []board.ID
	for n := 0; n <= 8; n++ {
		ids = append(ids, positions.FindBoardIDs(n)...)
	}
	slices.Sort(ids)
	return ids
}

func checkConsistent(t *testing.T, r *Result) {
	t.Helper()
	seen := make(map[board.ID]string)
	add := func(id board.ID, where string) {
		prev, dup := seen[id]
		assert.False(t, dup, "%v in %s and %s", id, prev, where)
		seen[id] = where
	}
	for n, ids := range r.Wins {
		assert.True(t, slices.IsSorted(ids))
		for _, id := range ids {
			add(id, "wins")
			outcome, depth, ok := r.Lookup(id)
			assert.True(t, ok)
			assert.Equal(t, Win, outcome)
			assert.Equal(t, n, depth)
		}
	}
	for n, ids := range r.Loses {
		for _, id := range ids {
			add(id, "loses")
			outcome, depth, ok := r.Lookup(id)
			assert.True(t, ok)
			assert.Equal(t, Lose, outcome)
			assert.Equal(t, n, depth)
		}
	}
	for _, id := range r.Both {
		add(id, "both")
	}
	for _, id := range r.Unresolved {
		add(id, "unresolved")
		_, _, ok := r.Lookup(id)
		assert.False(t, ok)
	}
}

func TestSolveSmallUniverse(t *testing.T) {
	is := is.New(t)
	universe := smallUniverse()

	var s Solver
	is.NoErr(s.Init(nil))
	s.SetRounds(10)
	var calls [][2]int
	s.SetProgressFunc(func(round, total int) {
		calls = append(calls, [2]int{round, total})
	})
	var logBuf bytes.Buffer
	s.SetLogStream(&logBuf)

	r, err := s.solve(context.Background(), universe)
	is.NoErr(err)
	is.Equal(r.Budget, 10)
	is.Equal(r.MaxDepth(), 11)
	is.True(len(r.Wins) >= 1 && len(r.Wins) <= 11)
	is.Equal(len(r.Wins), len(r.Loses))
	checkConsistent(t, r)

	sum := r.Summary()
	is.Equal(sum.Wins+sum.Loses+sum.Both+sum.Unresolved, len(universe))
	// the first round settles everything it can; the second learns nothing
	is.Equal(len(r.Wins), 2)
	is.Equal(sum.Wins, 1339)
	is.Equal(sum.Loses, 1516)
	is.Equal(sum.Both, 203)
	is.Equal(sum.Unresolved, 21840)
	is.Equal(r.Digest(), uint64(0x3480c8d35fc9e762))

	is.True(len(calls) >= 1)
	is.Equal(calls[0], [2]int{1, 10})
	for _, c := range calls {
		is.Equal(c[1], 10)
	}

	dec := yaml.NewDecoder(&logBuf)
	var docs []roundLog
	for {
		var doc roundLog
		if err := dec.Decode(&doc); errors.Is(err, io.EOF) {
			break
		} else {
			is.NoErr(err)
		}
		docs = append(docs, doc)
	}
	is.Equal(len(docs), len(calls)+1)
	is.Equal(docs[0].Round, 0)
	is.Equal(docs[0].Both, len(r.Both))
	is.Equal(docs[len(docs)-1].Residual, len(r.Unresolved))
}

func TestSolveIsDeterministic(t *testing.T) {
	is := is.New(t)
	universe := smallUniverse()
	digests := make([]uint64, 0, 2)
	for _, threads := range []int{1, 4} {
		var s Solver
		is.NoErr(s.Init(nil))
		s.SetRounds(6)
		s.SetThreads(threads)
		r, err := s.solve(context.Background(), universe)
		is.NoErr(err)
		digests = append(digests, r.Digest())
	}
	is.Equal(digests[0], digests[1])
	// the budget is not hashed, so a fixpoint before round 6 matches the
	// ten-round solve
	is.Equal(digests[0], uint64(0x3480c8d35fc9e762))
}

func TestSolveRejectsBadID(t *testing.T) {
	is := is.New(t)
	var s Solver
	is.NoErr(s.Init(nil))
	_, err := s.solve(context.Background(), []board.ID{0x11111111, 0x11110111})
	is.True(errors.Is(err, board.ErrInvalidEncoding))
}

func TestSolveCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var s Solver
	is.NoErr(s.Init(nil))
	_, err := s.Solve(ctx)
	is.True(errors.Is(err, context.Canceled))
}

func TestInitFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	_, err := cfg.Load([]string{"--rounds", "25", "--threads", "3"})
	is.NoErr(err)
	var s Solver
	is.NoErr(s.Init(cfg))
	is.Equal(s.Rounds(), 25)
	is.Equal(s.threads, 3)

	cfg.Set(config.ConfigRounds, 0)
	is.True(errors.Is(s.Init(cfg), config.ErrInvalidConfig))
}

func TestFullSolve(t *testing.T) {
	if testing.Short() {
		t.Skip("solves the whole game")
	}
	is := is.New(t)
	var s Solver
	is.NoErr(s.Init(nil))
	s.SetThreads(runtime.NumCPU())
	r, err := s.Solve(context.Background())
	is.NoErr(err)
	checkConsistent(t, r)

	var empty board.Board
	f := r.Forecast(empty)
	is.Equal(f, Forecast{Decided: true, Winner: board.White, Plies: 42})

	sum := r.Summary()
	is.Equal(sum.Wins, 3842910)
	is.Equal(sum.Loses, 3056738)
	is.Equal(sum.Both, 1299100)
	is.Equal(sum.Unresolved, 164279)
	is.Equal(sum.Rounds, DefaultRounds)
	is.Equal(r.Digest(), uint64(0x34598c75c47bad0d))
}

// Package retrograde solves the game backwards. Every reachable canonical
// position is seeded with the immediate rules, then each round classifies
// the positions whose successors are already known well enough. The round a
// position is classified in is its distance to the end of the game.
package retrograde

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/positions"
)

const (
	DefaultRounds = 140
	// minChunk keeps tiny shards from costing more to schedule than to run.
	minChunk = 2048
	// approximate bytes held per position: the residual slice plus a map
	// entry once it is classified.
	bytesPerPosition = 24
)

// ProgressFunc is called before every round.
type ProgressFunc func(round, total int)

type Solver struct {
	rounds    int
	threads   int
	progress  ProgressFunc
	logStream io.Writer
}

// entry is what the index knows about a canonical position.
type entry struct {
	outcome Outcome
	depth   uint16
}

type roundLog struct {
	Round     int   `yaml:"round"`
	Wins      int   `yaml:"wins"`
	Loses     int   `yaml:"loses"`
	Both      int   `yaml:"both,omitempty"`
	Residual  int   `yaml:"residual"`
	ElapsedMS int64 `yaml:"elapsed-ms"`
}

// Init reads the round budget and thread count from cfg.
func (s *Solver) Init(cfg *config.Config) error {
	s.rounds = DefaultRounds
	s.threads = 1
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.rounds = cfg.GetInt(config.ConfigRounds)
		s.threads = cfg.GetInt(config.ConfigThreads)
	}
	return nil
}

func (s *Solver) SetRounds(rounds int) {
	s.rounds = max(1, rounds)
}

func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
}

func (s *Solver) SetProgressFunc(f ProgressFunc) {
	s.progress = f
}

// SetLogStream makes the solver write one YAML document per round to l.
func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

func (s *Solver) Rounds() int {
	if s.rounds < 1 {
		return DefaultRounds
	}
	return s.rounds
}

// Solve enumerates every reachable position and runs the backward rounds.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	universe, err := positions.Reachable(ctx, max(1, s.threads))
	if err != nil {
		return nil, err
	}
	return s.solve(ctx, universe)
}

// solve runs the rounds over a sorted set of canonical IDs. Successors
// outside the set count as unknown.
func (s *Solver) solve(ctx context.Context, universe []board.ID) (*Result, error) {
	rounds := s.Rounds()
	threads := max(1, s.threads)
	start := time.Now()

	checkMemory(len(universe))

	var enc *yaml.Encoder
	if s.logStream != nil {
		enc = yaml.NewEncoder(s.logStream)
		defer enc.Close()
	}

	seeded, err := seed(ctx, universe, threads)
	if err != nil {
		return nil, err
	}
	known := make(map[board.ID]entry, len(universe)-len(seeded.rest))
	for _, id := range seeded.wins {
		known[id] = entry{outcome: Win}
	}
	for _, id := range seeded.loses {
		known[id] = entry{outcome: Lose}
	}
	for _, id := range seeded.both {
		known[id] = entry{outcome: Both}
	}
	res := &Result{
		Wins:   [][]board.ID{seeded.wins},
		Loses:  [][]board.ID{seeded.loses},
		Both:   seeded.both,
		Budget: rounds,
	}
	residual := seeded.rest

	log.Info().Int("positions", len(universe)).Int("wins", len(seeded.wins)).
		Int("loses", len(seeded.loses)).Int("both", len(seeded.both)).
		Int("residual", len(residual)).Msg("seeded")
	if enc != nil {
		if err := enc.Encode(roundLog{
			Wins: len(seeded.wins), Loses: len(seeded.loses), Both: len(seeded.both),
			Residual: len(residual), ElapsedMS: time.Since(start).Milliseconds(),
		}); err != nil {
			return nil, err
		}
	}

	for n := 1; n <= rounds; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.progress != nil {
			s.progress(n, rounds)
		}
		out, err := runRound(ctx, n, residual, known, threads)
		if err != nil {
			return nil, err
		}
		// nothing below is visible to the workers until the next round
		for _, id := range out.wins {
			known[id] = entry{outcome: Win, depth: uint16(n)}
		}
		for _, id := range out.loses {
			known[id] = entry{outcome: Lose, depth: uint16(n)}
		}
		residual = out.rest

		log.Debug().Int("round", n).Int("wins", len(out.wins)).Int("loses", len(out.loses)).
			Int("residual", len(residual)).Dur("elapsed", time.Since(start)).Msg("round-done")
		if enc != nil {
			if err := enc.Encode(roundLog{
				Round: n, Wins: len(out.wins), Loses: len(out.loses),
				Residual: len(residual), ElapsedMS: time.Since(start).Milliseconds(),
			}); err != nil {
				return nil, err
			}
		}
		if len(out.wins)+len(out.loses) == 0 {
			// a round that learns nothing leaves the next one identical
			log.Info().Int("round", n).Int("residual", len(residual)).Msg("fixpoint-reached")
			break
		}
		res.Wins = append(res.Wins, out.wins)
		res.Loses = append(res.Loses, out.loses)
	}

	res.Unresolved = residual
	res.index = known
	log.Info().Int("rounds", len(res.Wins)-1).Int("unresolved", len(residual)).
		Dur("elapsed", time.Since(start)).Msg("solve-done")
	return res, nil
}

// partition is one worker's share of a seed pass or a round.
type partition struct {
	wins, loses, both, rest []board.ID
}

func merge(parts []partition) partition {
	var p partition
	for _, q := range parts {
		p.wins = append(p.wins, q.wins...)
		p.loses = append(p.loses, q.loses...)
		p.both = append(p.both, q.both...)
		p.rest = append(p.rest, q.rest...)
	}
	return p
}

func shards(ids []board.ID, threads int) [][]board.ID {
	if len(ids) == 0 {
		return nil
	}
	size := max(minChunk, (len(ids)+4*threads-1)/(4*threads))
	return lo.Chunk(ids, size)
}

func seed(ctx context.Context, universe []board.ID, threads int) (partition, error) {
	chunks := shards(universe, threads)
	parts := make([]partition, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := &parts[i]
			for _, id := range chunk {
				b, err := board.Decode(id)
				if err != nil {
					return fmt.Errorf("seeding: %w", err)
				}
				class, ok := Classify(b)
				switch {
				case !ok:
					p.rest = append(p.rest, id)
				case class.Outcome() == Win:
					p.wins = append(p.wins, id)
				case class.Outcome() == Both:
					p.both = append(p.both, id)
				default:
					p.loses = append(p.loses, id)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return partition{}, err
	}
	return merge(parts), nil
}

func runRound(ctx context.Context, n int, residual []board.ID, known map[board.ID]entry,
	threads int) (partition, error) {

	chunks := shards(residual, threads)
	parts := make([]partition, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := &parts[i]
			actions := make([]board.Action, 0, 3*board.NumColumns)
			for _, id := range chunk {
				b, err := board.Decode(id)
				if err != nil {
					return fmt.Errorf("round %d: %w", n, err)
				}
				actions = b.AppendLegalActions(actions[:0], b.CanonicalPlayer())
				outcome, ok := judge(b, actions, known)
				switch {
				case !ok:
					p.rest = append(p.rest, id)
				case outcome == Win:
					p.wins = append(p.wins, id)
				default:
					p.loses = append(p.loses, id)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return partition{}, err
	}
	return merge(parts), nil
}

// judge decides b from what is known about its successors. The player on
// turn wins with two replies that leave the opponent lost, and loses when
// all replies but at most one leave the opponent winning.
func judge(b board.Board, actions []board.Action, known map[board.ID]entry) (Outcome, bool) {
	// a move hands a 16-stone position to the other colour
	swap := b.NumStones() == board.MaxStones
	numWin, numLose := 0, 0
	for _, a := range actions {
		next := b.After(a)
		if swap {
			next.SwapColor()
		}
		e, ok := known[next.CanonicalID()]
		if !ok {
			continue
		}
		switch e.outcome {
		case Win:
			numLose++
		case Lose, Both:
			numWin++
		}
		if numWin == 2 {
			break
		}
	}
	switch {
	case numWin >= 2:
		return Win, true
	case numLose >= len(actions)-1:
		return Lose, true
	}
	return 0, false
}

func checkMemory(numPositions int) {
	need := uint64(numPositions) * bytesPerPosition
	total := memory.TotalMemory()
	log.Debug().Uint64("estimated-bytes", need).Uint64("total-memory", total).Msg("memory-check")
	if total > 0 && need > total/2 {
		log.Warn().Uint64("estimated-bytes", need).Uint64("total-memory", total).
			Msg("solver-may-exceed-half-of-system-memory")
	}
}

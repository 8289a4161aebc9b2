package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/stackring/analyzer"
	"github.com/domino14/stackring/cache"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

// Solves the game and prints who wins from the start, a few plies of best
// play and how wide best play branches.
func main() {
	cfg := config.DefaultConfig()
	if _, err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var progress retrograde.ProgressFunc
	if cfg.GetBool(config.ConfigShowProgress) {
		progress = func(round, total int) {
			fmt.Fprintf(os.Stderr, "round %d/%d\n", round, total)
		}
	}

	if path := cfg.GetString(config.ConfigRoundLogFile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("creating-round-log")
		}
		defer f.Close()
		r, err := solveWithLog(ctx, cfg, progress, f)
		if err != nil {
			log.Fatal().Err(err).Msg("solve-failed")
		}
		report(cfg, r)
		return
	}

	r, err := cache.LoadSolution(ctx, cfg, progress)
	if err != nil {
		log.Fatal().Err(err).Msg("solve-failed")
	}
	report(cfg, r)
}

func solveWithLog(ctx context.Context, cfg *config.Config, progress retrograde.ProgressFunc,
	f *os.File) (*retrograde.Result, error) {

	var s retrograde.Solver
	if err := s.Init(cfg); err != nil {
		return nil, err
	}
	s.SetProgressFunc(progress)
	s.SetLogStream(f)
	return s.Solve(ctx)
}

func report(cfg *config.Config, r *retrograde.Result) {
	sum := r.Summary()
	log.Info().Int("wins", sum.Wins).Int("loses", sum.Loses).Int("both", sum.Both).
		Int("unresolved", sum.Unresolved).Int("last-round", sum.Rounds).
		Float64("mean-win-depth", sum.MeanWinDepth).Float64("mean-lose-depth", sum.MeanLoseDepth).
		Str("digest", fmt.Sprintf("%016x", r.Digest())).Msg("solved")

	an := analyzer.NewAnalyzer(cfg, r)
	if err := an.Report(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("report-failed")
	}
}

package shell

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/stackring/analyzer"
	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/cache"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

// histSamples caps how many depths go into the histogram.
const histSamples = 100_000

func (sc *ShellController) requireSolution() error {
	if sc.result == nil {
		return errNotSolved
	}
	return nil
}

func (sc *ShellController) setResult(r *retrograde.Result) {
	sc.result = r
	sc.an = analyzer.NewAnalyzer(sc.config, r)
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return Msg(usage()), nil
	}
	return Msg(usageTopic(cmd.args[0])), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	keys := []string{config.ConfigRounds, config.ConfigThreads}
	values := make([]int, len(keys))
	for i, key := range keys {
		n, err := cmd.intOption(key, sc.config.GetInt(key))
		if err != nil {
			return nil, err
		}
		values[i] = n
	}
	old := make([]any, len(keys))
	for i, key := range keys {
		old[i] = sc.config.Get(key)
		sc.config.Set(key, values[i])
	}
	if err := sc.config.Validate(); err != nil {
		for i, key := range keys {
			sc.config.Set(key, old[i])
		}
		return nil, err
	}
	var progress retrograde.ProgressFunc
	if sc.config.GetBool(config.ConfigShowProgress) {
		progress = func(round, total int) {
			sc.showMessage(fmt.Sprintf("round %d/%d", round, total))
		}
	}
	r, err := cache.LoadSolution(sc.solveCtx, sc.config, progress)
	if err != nil {
		return nil, err
	}
	sc.setResult(r)
	sum := r.Summary()
	return Msg(fmt.Sprintf("solved: %d wins, %d losses, %d both, %d unresolved, last round %d",
		sum.Wins, sum.Loses, sum.Both, sum.Unresolved, sum.Rounds)), nil
}

func (sc *ShellController) forecast(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	b, player := sc.board, sc.player
	if len(cmd.args) > 0 && cmd.args[0] == "start" {
		b, player = board.Board{}, board.Black
	}
	if b.NumStones() < board.MaxStones && player != b.CanonicalPlayer() {
		return nil, fmt.Errorf("%w: %v places next on this board, not %v",
			errNotOnTurn, b.CanonicalPlayer(), player)
	}
	// moving positions are solved with black on turn
	swapped := b.NumStones() == board.MaxStones && player == board.White
	if swapped {
		b.SwapColor()
	}
	f := sc.result.Forecast(b)
	if swapped {
		f.Winner = f.Winner.Opponent()
	}
	return Msg(analyzer.ForecastText(f)), nil
}

func (sc *ShellController) boardText() string {
	var sb strings.Builder
	sb.WriteString(sc.board.String())
	fmt.Fprintf(&sb, "\nstones: %d, to move: %v", sc.board.NumStones(), sc.player)
	switch {
	case sc.board.LinesUp(board.Black) && sc.board.LinesUp(board.White):
		sb.WriteString(", both players have a line")
	case sc.board.LinesUp(board.Black):
		sb.WriteString(", B has a line")
	case sc.board.LinesUp(board.White):
		sb.WriteString(", W has a line")
	}
	return sb.String()
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return Msg(sc.boardText()), nil
}

func (sc *ShellController) newBoard(cmd *shellcmd) (*Response, error) {
	sc.board = board.Board{}
	sc.player = board.Black
	sc.history = nil
	return Msg(sc.boardText()), nil
}

// setup <col0> ... <col7> [-player B|W]
func (sc *ShellController) setup(cmd *shellcmd) (*Response, error) {
	b, err := board.FromColumns(cmd.args)
	if err != nil {
		return nil, err
	}
	player := b.CanonicalPlayer()
	if p, ok := cmd.options["player"]; ok {
		if player, err = board.ParseColor(p); err != nil {
			return nil, err
		}
	}
	sc.history = nil
	sc.board = b
	sc.player = player
	return Msg(sc.boardText()), nil
}

func (sc *ShellController) perform(a board.Action) (*Response, error) {
	prev := snapshot{board: sc.board, player: sc.player}
	if err := sc.board.Perform(a); err != nil {
		return nil, err
	}
	sc.history = append(sc.history, prev)
	sc.player = sc.player.Opponent()
	log.Debug().Str("action", a.String()).Msg("performed")
	return Msg(sc.boardText()), nil
}

func columnArg(s string) (int, error) {
	c, err := strconv.Atoi(s)
	if err != nil || c < 0 || c >= board.NumColumns {
		return 0, fmt.Errorf("%q is not a column (0-%d)", s, board.NumColumns-1)
	}
	return c, nil
}

func (sc *ShellController) put(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("put <column>")
	}
	c, err := columnArg(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return sc.perform(board.NewPut(sc.player, c))
}

func (sc *ShellController) move(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("move <from> <to>")
	}
	from, err := columnArg(cmd.args[0])
	if err != nil {
		return nil, err
	}
	to, err := columnArg(cmd.args[1])
	if err != nil {
		return nil, err
	}
	if color, ok := sc.board.At(from, 0); ok && color != sc.player {
		return nil, fmt.Errorf("%w: the stone in column %d is not %v's",
			board.ErrIllegalAction, from, sc.player)
	}
	return sc.perform(board.NewMove(from, to))
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	last := sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	sc.board, sc.player = last.board, last.player
	return Msg(sc.boardText()), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	ranked := sc.an.Evaluator().Ranked(sc.board, sc.player)
	if len(ranked) == 0 {
		return Msg(fmt.Sprintf("%v has no legal action", sc.player)), nil
	}
	var sb strings.Builder
	sb.WriteString("     Action      Score\n")
	for i, s := range ranked {
		fmt.Fprintf(&sb, "%3d: %-12s%5d\n", i+1, s.Action, s.Score)
	}
	return Msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	ranked := sc.an.Evaluator().Ranked(sc.board, sc.player)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%v has no legal action", sc.player)
	}
	return sc.perform(ranked[0].Action)
}

func (sc *ShellController) walk(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	steps, err := cmd.intOption("steps", sc.config.GetInt(config.ConfigWalkSteps))
	if err != nil {
		return nil, err
	}
	rank, err := cmd.intOption("rank", sc.config.GetInt(config.ConfigWalkRank))
	if err != nil {
		return nil, err
	}
	random := cmd.options["random"] == "true"
	var sb strings.Builder
	for _, st := range sc.an.Walk(sc.board, sc.player, steps, rank, random) {
		fmt.Fprintf(&sb, "%d. %v %v (%d)\n%v\n", st.Ply, st.Player, st.Action, st.Score, st.Board)
	}
	return Msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) frontier(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	plies, err := cmd.intOption("plies", sc.config.GetInt(config.ConfigFrontierPlies))
	if err != nil {
		return nil, err
	}
	rank, err := cmd.intOption("rank", sc.config.GetInt(config.ConfigWalkRank))
	if err != nil {
		return nil, err
	}
	sizes, err := sc.an.Frontier(plies, rank)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for ply, n := range sizes {
		fmt.Fprintf(&sb, "ply %d: %d positions\n", ply+1, n)
	}
	return Msg(strings.TrimRight(sb.String(), "\n")), nil
}

// depthSamples spreads every classified position's depth into at most
// histSamples values, keeping the proportions between rounds.
func depthSamples(counts []int) []float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	scale := max(1, int(math.Ceil(float64(total)/histSamples)))
	var vals []float64
	for depth, c := range counts {
		for range (c + scale - 1) / scale {
			vals = append(vals, float64(depth))
		}
	}
	return vals
}

func (sc *ShellController) hist(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	bins, err := cmd.intOption("bins", 15)
	if err != nil {
		return nil, err
	}
	if bins < 1 {
		return nil, fmt.Errorf("-bins must be at least 1, got %d", bins)
	}
	vals := depthSamples(sc.result.DepthCounts())
	if len(vals) == 0 {
		return Msg("nothing classified"), nil
	}
	var sb strings.Builder
	sb.WriteString("Depth of classified positions:\n")
	if err := histogram.Fprint(&sb, histogram.Hist(bins, vals), histogram.Linear(40)); err != nil {
		return nil, err
	}
	return Msg(strings.TrimRight(sb.String(), "\n")), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSolution(); err != nil {
		return nil, err
	}
	if len(cmd.args) != 1 {
		return nil, errors.New(`analyze '{"columns": [...], "player": "B"}'`)
	}
	out, err := sc.an.Analyze([]byte(cmd.args[0]))
	if err != nil {
		return nil, err
	}
	return Msg(string(out)), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("set <setting> <value>")
	}
	key, val := cmd.args[0], cmd.args[1]
	switch key {
	case config.ConfigRounds, config.ConfigThreads, config.ConfigWalkSteps,
		config.ConfigWalkRank, config.ConfigFrontierPlies:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		old := sc.config.Get(key)
		sc.config.Set(key, n)
		if err := sc.config.Validate(); err != nil {
			sc.config.Set(key, old)
			return nil, err
		}
	case config.ConfigShowProgress, config.ConfigDebug:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(key, b)
		if key == config.ConfigDebug && b {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else if key == config.ConfigDebug {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		return nil, fmt.Errorf("no such setting: %s", key)
	}
	return Msg(fmt.Sprintf("%s set to %s", key, val)), nil
}

func (sc *ShellController) settings(cmd *shellcmd) (*Response, error) {
	keys := []string{
		config.ConfigRounds, config.ConfigThreads, config.ConfigShowProgress,
		config.ConfigWalkSteps, config.ConfigWalkRank, config.ConfigFrontierPlies,
	}
	var sb strings.Builder
	sb.WriteString("Settings:")
	for _, key := range keys {
		fmt.Fprintf(&sb, "\n  %s: %v", key, sc.config.Get(key))
	}
	return Msg(sb.String()), nil
}

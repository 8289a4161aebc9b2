package shell

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"walk -steps 4",
			&shellcmd{"walk", nil, map[string]string{"steps": "4"}},
			nil},
		{"forecast start",
			&shellcmd{"forecast", []string{"start"}, map[string]string{}},
			nil},
		{"setup BW W - B - WB - B -player W ",
			&shellcmd{"setup",
				[]string{"BW", "W", "-", "B", "-", "WB", "-", "B"},
				map[string]string{"player": "W"}},
			nil,
		},
		{`analyze '{"columns": []}'`,
			&shellcmd{"analyze", []string{`{"columns": []}`}, map[string]string{}},
			nil},
		{"frontier -plies 3 -rank",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func newTestController(t *testing.T) (*ShellController, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := config.DefaultConfig()
	_, err := cfg.Load(nil)
	require.NoError(t, err)
	return newController(cfg, &out), &out
}

func run(t *testing.T, sc *ShellController, line string) string {
	t.Helper()
	resp, err := sc.handle(line)
	require.NoError(t, err, line)
	require.NotNil(t, resp)
	return resp.message
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "new")
	run(t, sc, "put 3")
	msg := run(t, sc, "put 3")
	is.True(strings.Contains(msg, "3: WB"))
	is.True(strings.Contains(msg, "to move: B"))

	_, err := sc.handle("put 9")
	is.True(err != nil)
	_, err = sc.handle("move 3 4")
	is.True(errors.Is(err, board.ErrIllegalAction))

	msg = run(t, sc, "undo")
	is.True(strings.Contains(msg, "3: B\n"))
	is.Equal(sc.player, board.White)
	run(t, sc, "undo")
	_, err = sc.handle("undo")
	is.True(err != nil)
}

func TestSetupAndMove(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	run(t, sc, "setup WBB WB BBB WB WWW BW W -")
	is.Equal(sc.player, board.Black)
	msg := run(t, sc, "move 2 6")
	is.True(strings.Contains(msg, "6: BW"))
	is.True(strings.Contains(msg, "to move: W"))
	// the bottom stone of column 5 is black
	_, err := sc.handle("move 5 6")
	is.True(errors.Is(err, board.ErrIllegalAction))
	msg = run(t, sc, "move 0 1")
	is.True(strings.Contains(msg, "1: WWB"))

	_, err = sc.handle("setup B W")
	is.True(err != nil)
	run(t, sc, "setup B - - - - - - - -player W")
	is.Equal(sc.player, board.White)
}

func TestCommandsNeedSolution(t *testing.T) {
	sc, _ := newTestController(t)
	for _, line := range []string{"eval", "best", "walk", "frontier", "hist", "forecast", "analyze x"} {
		_, err := sc.handle(line)
		assert.ErrorIs(t, err, errNotSolved, line)
	}
	_, err := sc.handle("nonsense")
	assert.Error(t, err)
}

func TestSolvedCommands(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	var empty board.Board
	first := empty.After(board.NewPut(board.Black, 0)).CanonicalID()
	sc.setResult(retrograde.NewResult(
		[][]board.ID{nil, {first}},
		[][]board.ID{nil, nil, {empty.CanonicalID()}},
		nil, 10))

	is.Equal(run(t, sc, "forecast"), "The second player wins in 2 steps")

	msg := run(t, sc, "eval")
	is.True(strings.HasPrefix(msg, "     Action      Score\n"))
	is.True(strings.Contains(msg, "put(B,0)"))
	is.True(strings.Contains(msg, "-10"))

	msg = run(t, sc, "walk -steps 2 -rank 0")
	is.True(strings.HasPrefix(msg, "1. B put(B,0) (-10)"))

	is.Equal(run(t, sc, "frontier -plies 1"), "ply 1: 1 positions")

	msg = run(t, sc, "hist")
	is.True(strings.HasPrefix(msg, "Depth of classified positions:"))

	msg = run(t, sc, `analyze '{"columns": ["", "", "", "", "", "", "", ""]}'`)
	is.True(strings.HasPrefix(msg, `[{"action":"put(B,0)"`))

	run(t, sc, "best")
	is.Equal(sc.board.Columns()[0], "B")
}

func TestSettings(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	is.Equal(run(t, sc, "set rounds 12"), "rounds set to 12")
	is.Equal(sc.config.GetInt(config.ConfigRounds), 12)
	_, err := sc.handle("set rounds 0")
	is.True(errors.Is(err, config.ErrInvalidConfig))
	is.Equal(sc.config.GetInt(config.ConfigRounds), 12)
	_, err = sc.handle("set colour red")
	is.True(err != nil)
	is.True(strings.Contains(run(t, sc, "settings"), "rounds: 12"))
}

func TestSolveKeepsSettingsOnBadOptions(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	_, err := sc.handle("solve -rounds 0")
	is.True(errors.Is(err, config.ErrInvalidConfig))
	is.Equal(sc.config.GetInt(config.ConfigRounds), retrograde.DefaultRounds)
	_, err = sc.handle("solve -threads -2")
	is.True(errors.Is(err, config.ErrInvalidConfig))
	is.Equal(sc.config.GetInt(config.ConfigThreads), config.DefaultConfig().GetInt(config.ConfigThreads))
	is.Equal(run(t, sc, "set walk-steps 3"), "walk-steps set to 3")
}

func TestHistRejectsBadBins(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	var empty board.Board
	first := empty.After(board.NewPut(board.Black, 0)).CanonicalID()
	sc.setResult(retrograde.NewResult(
		[][]board.ID{nil, {first}},
		[][]board.ID{nil, nil, {empty.CanonicalID()}},
		nil, 10))
	for _, line := range []string{"hist -bins 0", "hist -bins -3"} {
		_, err := sc.handle(line)
		is.True(err != nil)
	}
	msg := run(t, sc, "hist -bins 4")
	is.True(strings.HasPrefix(msg, "Depth of classified positions:"))
}

func TestForecastNeedsThePlayerOnTurn(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	var empty board.Board
	sc.setResult(retrograde.NewResult(nil, [][]board.ID{{empty.CanonicalID()}}, nil, 10))
	run(t, sc, "setup - - - - - - - - -player W")
	_, err := sc.handle("forecast")
	is.True(errors.Is(err, errNotOnTurn))
	is.Equal(run(t, sc, "forecast start"), "The second player wins in 0 steps")
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	is.True(strings.HasPrefix(run(t, sc, "help"), "Usage:"))
	is.True(strings.HasPrefix(run(t, sc, "help walk"), "walk [-steps n]"))
	is.Equal(run(t, sc, "help nothing"), "There is no help text for the topic nothing")
}

func TestExecuteReportsErrors(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)
	sc.Execute(nil, "put 12")
	is.True(strings.HasPrefix(out.String(), "Error: "))
	out.Reset()
	sc.Execute(nil, "show")
	is.True(strings.HasPrefix(out.String(), "0: \n"))
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	c := NewShellCompleter(sc)

	matches, n := c.Do([]rune("fr"), 2)
	is.Equal(n, 2)
	is.Equal(matches, [][]rune{[]rune("ontier")})

	line := []rune("walk -r")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), 2)

	line = []rune("put ")
	matches, _ = c.Do(line, len(line))
	is.Equal(len(matches), board.NumColumns)
}

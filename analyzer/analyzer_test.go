package analyzer

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

func unsolved() *retrograde.Result {
	return retrograde.NewResult(nil, nil, nil, retrograde.DefaultRounds)
}

func TestForecastText(t *testing.T) {
	is := is.New(t)
	is.Equal(ForecastText(retrograde.Forecast{}), "The outcome is undetermined")
	is.Equal(ForecastText(retrograde.Forecast{Decided: true, Winner: board.Black, Plies: 33}),
		"The first player wins in 33 steps")
	is.Equal(ForecastText(retrograde.Forecast{Decided: true, Winner: board.White, Plies: 8}),
		"The second player wins in 8 steps")

	var empty board.Board
	r := retrograde.NewResult(nil, [][]board.ID{nil, nil, {empty.CanonicalID()}}, nil, 10)
	is.Equal(ForecastText(r.Forecast(empty)), "The second player wins in 2 steps")
}

func TestAnalyze(t *testing.T) {
	b, err := board.FromColumns([]string{"B", "W", "", "", "", "", "", ""})
	require.NoError(t, err)
	good := b.After(board.NewPut(board.Black, 5)).CanonicalID()
	r := retrograde.NewResult(nil, [][]board.ID{nil, {good}}, nil, 20)
	an := NewAnalyzer(config.DefaultConfig(), r)

	for _, in := range []string{
		`{"columns": ["B", "W", "", "", "", "", "", ""], "player": "B"}`,
		`{"columns": ["B", "W", "-", "-", "-", "-", "-", "-"]}`,
	} {
		out, err := an.Analyze([]byte(in))
		require.NoError(t, err)
		var actions []JsonAction
		require.NoError(t, json.Unmarshal(out, &actions))
		require.Len(t, actions, board.NumColumns)
		assert.Equal(t, JsonAction{
			Action: "put(B,5)", Type: "put", Player: "B", From: -1, To: 5, Score: 20,
		}, actions[0])
		assert.Equal(t, 0, actions[1].Score)
	}

	_, err = an.Analyze([]byte(`{"columns": ["B"]}`))
	assert.Error(t, err)
	_, err = an.Analyze([]byte(`{"columns": ["", "", "", "", "", "", "", ""], "player": "X"}`))
	assert.Error(t, err)
	_, err = an.Analyze([]byte(`not json`))
	assert.Error(t, err)
}

func TestRunTest(t *testing.T) {
	is := is.New(t)
	an := NewAnalyzer(config.DefaultConfig(), unsolved())
	var buf bytes.Buffer
	is.NoErr(an.RunTest(&buf))
	out := buf.String()
	is.True(strings.HasPrefix(out, "0: BW\n"))
	is.True(strings.Contains(out, "put(W,0)"))
}

func TestWalkFollowsRank(t *testing.T) {
	is := is.New(t)
	an := NewAnalyzer(config.DefaultConfig(), unsolved())
	var empty board.Board
	// everything scores 0, so rank 1 is always the second column
	walk := an.Walk(empty, board.Black, 2, 1, false)
	is.Equal(len(walk), 2)
	is.Equal(walk[0].Action, board.NewPut(board.Black, 1))
	is.Equal(walk[1].Action, board.NewPut(board.White, 1))
	is.Equal(walk[1].Board.Columns()[1], "WB")
	is.Equal(walk[1].Player, board.White)

	// black has nothing to put on white's turn
	is.Equal(len(an.Walk(walk[0].Board, board.Black, 3, 0, false)), 0)
}

func TestWalkRandomTies(t *testing.T) {
	is := is.New(t)
	an := NewAnalyzer(config.DefaultConfig(), unsolved())
	var empty board.Board
	walk := an.Walk(empty, board.Black, board.MaxStones, 0, true)
	is.Equal(len(walk), board.MaxStones)
	b := empty
	for _, st := range walk {
		is.True(slices.Contains(b.LegalActions(st.Player), st.Action))
		b = b.After(st.Action)
		is.Equal(b, st.Board)
	}
	is.Equal(b.NumStones(), board.MaxStones)
}

func TestFrontier(t *testing.T) {
	is := is.New(t)
	an := NewAnalyzer(config.DefaultConfig(), unsolved())
	sizes, err := an.Frontier(3, 0)
	is.NoErr(err)
	is.Equal(len(sizes), 3)
	// all first stones are equivalent; the reply goes on top of it or at
	// distance one to four
	is.Equal(sizes[0], 1)
	is.Equal(sizes[1], 5)
	is.True(sizes[2] > 0)

	// only the reply opposite the first stone is followed
	var empty board.Board
	first := empty.After(board.NewPut(board.Black, 0))
	opposite := first.After(board.NewPut(board.White, 4)).CanonicalID()
	r := retrograde.NewResult(nil, [][]board.ID{nil, {opposite}}, nil, 5)
	an = NewAnalyzer(config.DefaultConfig(), r)
	sizes, err = an.Frontier(2, 0)
	is.NoErr(err)
	is.Equal(sizes, []int{1, 1})
}

func TestReport(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigWalkSteps, 2)
	cfg.Set(config.ConfigFrontierPlies, 2)
	an := NewAnalyzer(cfg, unsolved())
	var buf bytes.Buffer
	is.NoErr(an.Report(&buf))
	out := buf.String()
	is.True(strings.HasPrefix(out, "The outcome is undetermined\n"))
	is.True(strings.Contains(out, "1. B put(B,1) (0)"))
	is.True(strings.Contains(out, "2. W put(W,1) (0)"))
	is.True(strings.Contains(out, "ply 2: "))
}

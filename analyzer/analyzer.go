package analyzer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/evaluator"
	"github.com/domino14/stackring/retrograde"
)

var SampleJson = []byte(`{
"columns": ["BW", "W", "", "B", "", "WB", "", "B"],
"player": "W"
}`)

type JsonBoard struct {
	Columns []string `json:"columns"`
	Player  string   `json:"player"`
}

type JsonAction struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Score  int    `json:"score"`
}

type Analyzer struct {
	config *config.Config
	result *retrograde.Result
	eval   *evaluator.Evaluator
}

func MakeJsonAction(s evaluator.ScoredAction) JsonAction {
	a := s.Action
	j := JsonAction{
		Action: a.String(),
		Type:   a.Type.String(),
		From:   a.From,
		To:     a.To,
		Score:  s.Score,
	}
	if a.Type == board.ActionPut {
		j.Player = a.Player.String()
		j.From = -1
	}
	return j
}

func NewAnalyzer(cfg *config.Config, r *retrograde.Result) *Analyzer {
	return &Analyzer{
		config: cfg,
		result: r,
		eval:   evaluator.New(r),
	}
}

func (an *Analyzer) Evaluator() *evaluator.Evaluator {
	return an.eval
}

func loadJson(j []byte) (board.Board, board.Color, error) {
	var jb JsonBoard
	if err := json.Unmarshal(j, &jb); err != nil {
		return board.Board{}, board.Black, err
	}
	b, err := board.FromColumns(jb.Columns)
	if err != nil {
		return board.Board{}, board.Black, err
	}
	if jb.Player == "" {
		return b, b.CanonicalPlayer(), nil
	}
	player, err := board.ParseColor(jb.Player)
	if err != nil {
		return board.Board{}, board.Black, err
	}
	return b, player, nil
}

// Analyze ranks the actions of the position in jsonBoard. A missing player
// means the player on turn by stone count.
func (an *Analyzer) Analyze(jsonBoard []byte) ([]byte, error) {
	b, player, err := loadJson(jsonBoard)
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	ranked := an.eval.Ranked(b, player)
	out := make([]JsonAction, len(ranked))
	for i, s := range ranked {
		out[i] = MakeJsonAction(s)
	}
	return json.Marshal(out)
}

// RunTest analyses the sample board and writes the result to w.
func (an *Analyzer) RunTest(w io.Writer) error {
	out, err := an.Analyze(SampleJson)
	if err != nil {
		return err
	}
	b, _, err := loadJson(SampleJson)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, b.String())
	var actions []JsonAction
	if err := json.Unmarshal(out, &actions); err != nil {
		return err
	}
	for _, a := range actions {
		fmt.Fprintf(w, "%-10s %5d\n", a.Action, a.Score)
	}
	return nil
}

// Report writes the forecast for the empty board, a walk of the best play
// and the frontier sizes, with lengths taken from the config.
func (an *Analyzer) Report(w io.Writer) error {
	var empty board.Board
	fmt.Fprintln(w, ForecastText(an.result.Forecast(empty)))

	steps := an.config.GetInt(config.ConfigWalkSteps)
	rank := an.config.GetInt(config.ConfigWalkRank)
	for _, st := range an.Walk(empty, board.Black, steps, rank, false) {
		fmt.Fprintf(w, "%d. %v %v (%d)\n%v\n", st.Ply, st.Player, st.Action, st.Score, st.Board)
	}

	sizes, err := an.Frontier(an.config.GetInt(config.ConfigFrontierPlies), rank)
	if err != nil {
		return err
	}
	for ply, n := range sizes {
		fmt.Fprintf(w, "ply %d: %d positions\n", ply+1, n)
	}
	return nil
}

func ForecastText(f retrograde.Forecast) string {
	switch {
	case !f.Decided:
		return "The outcome is undetermined"
	case f.Winner == board.Black:
		return fmt.Sprintf("The first player wins in %d steps", f.Plies)
	}
	return fmt.Sprintf("The second player wins in %d steps", f.Plies)
}

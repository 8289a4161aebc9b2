package shell

import (
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
)

// ShellCompleter completes command names, options and a few argument
// values for readline.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"solve":    {Options: []string{"-rounds", "-threads"}},
	"forecast": {Args: []string{"start"}},
	"setup":    {Options: []string{"-player"}},
	"walk":     {Options: []string{"-steps", "-rank", "-random"}},
	"frontier": {Options: []string{"-plies", "-rank"}},
	"hist":     {Options: []string{"-bins"}},
	"help":     {Args: []string{"solve", "setup", "walk", "frontier"}},
	"set": {Args: []string{
		config.ConfigRounds, config.ConfigThreads, config.ConfigShowProgress,
		config.ConfigDebug, config.ConfigWalkSteps, config.ConfigWalkRank,
		config.ConfigFrontierPlies,
	}},
}

var commandNames = []string{
	"help", "solve", "forecast", "show", "new", "setup", "put", "move", "undo",
	"eval", "best", "walk", "frontier", "hist", "analyze", "set", "settings",
	"exit",
}

var boolValues = []string{"true", "false"}

// actionArgs suggests columns for put and move given the current board.
func (c *ShellCompleter) actionArgs(cmdName string, given int) []string {
	b, player := c.sc.board, c.sc.player
	var cols []string
	for _, a := range b.LegalActions(player) {
		switch {
		case cmdName == "put" && a.Type == board.ActionPut && given == 0:
			cols = append(cols, strconv.Itoa(a.To))
		case cmdName == "move" && a.Type == board.ActionMove && given == 0:
			cols = append(cols, strconv.Itoa(a.From))
		}
	}
	return cols
}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch strings.TrimPrefix(lastCompleteField, "-") {
		case "random":
			completions = boolValues
		case "player":
			completions = []string{"B", "W"}
		}
		if lastCompleteField == config.ConfigShowProgress || lastCompleteField == config.ConfigDebug {
			completions = boolValues
		}

		if completions == nil && (cmdName == "put" || cmdName == "move") {
			given := len(fields) - 1
			if !endsWithSpace {
				given--
			}
			completions = c.actionArgs(cmdName, given)
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

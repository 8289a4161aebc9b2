package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/stackring/analyzer"
	"github.com/domino14/stackring/board"
	"github.com/domino14/stackring/config"
	"github.com/domino14/stackring/retrograde"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNotSolved         = errors.New("the game is not solved yet; run `solve` first")
	errNotOnTurn         = errors.New("player is not on turn")
)

type Response struct {
	message string
}

func Msg(message string) *Response {
	return &Response{message: message}
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// extractFields splits a line into a command, its positional arguments and
// its -name value options.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (c *shellcmd) intOption(name string, def int) (int, error) {
	v, ok := c.options[name]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("option -%s: %w", name, err)
	}
	return n, nil
}

type ShellController struct {
	l          *readline.Instance
	out        io.Writer
	config     *config.Config
	execPath   string
	gitVersion string

	result *retrograde.Result
	an     *analyzer.Analyzer

	board   board.Board
	player  board.Color
	history []snapshot

	solveCtx    context.Context
	solveCancel context.CancelFunc
}

type snapshot struct {
	board  board.Board
	player board.Color
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShellController{
		out:         out,
		config:      cfg,
		player:      board.Black,
		solveCtx:    ctx,
		solveCancel: cancel,
	}
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, os.Stderr)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mstackring>\033[0m ",
		HistoryFile:     "/tmp/stackring_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	sc.execPath = execPath
	sc.gitVersion = gitVersion
	return sc
}

func (sc *ShellController) handle(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "help", "h", "?":
		return sc.help(cmd)
	case "solve":
		return sc.solve(cmd)
	case "forecast", "f":
		return sc.forecast(cmd)
	case "show", "s", "b":
		return sc.show(cmd)
	case "new", "n":
		return sc.newBoard(cmd)
	case "setup":
		return sc.setup(cmd)
	case "put", "p":
		return sc.put(cmd)
	case "move", "m":
		return sc.move(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "eval", "e":
		return sc.eval(cmd)
	case "best", "aiplay", "ai":
		return sc.best(cmd)
	case "walk", "w":
		return sc.walk(cmd)
	case "frontier":
		return sc.frontier(cmd)
	case "hist":
		return sc.hist(cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "set":
		return sc.set(cmd)
	case "settings":
		return sc.settings(cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.handle(strings.TrimSpace(line))
	if err != nil {
		sc.showError(err)
	} else if resp != nil {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.handle(line)
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}

// Cleanup stops a solve that is still running.
func (sc *ShellController) Cleanup() {
	sc.solveCancel()
	log.Debug().Msg("shell-cleanup")
}

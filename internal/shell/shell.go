package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/render"
)

const prompt = "ust> "

// Shell is the interactive lookup prompt
type Shell struct {
	svc         *lookup.Service
	in          LineReader
	out         io.Writer
	interactive bool
	reload      func(ctx context.Context) error
}

// Option configures a Shell
type Option func(*Shell)

// WithReload enables the reload command
func WithReload(fn func(ctx context.Context) error) Option {
	return func(s *Shell) { s.reload = fn }
}

// New creates a shell over an input source
func New(svc *lookup.Service, in LineReader, out io.Writer, interactive bool, opts ...Option) *Shell {
	s := &Shell{svc: svc, in: in, out: out, interactive: interactive}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a line reader for stdin: readline with history when stdin is
// a terminal, a plain line scanner otherwise. The boolean reports whether
// the input is interactive.
func Open(historyFile string) (LineReader, func() error, bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return NewScanner(os.Stdin), func() error { return nil }, false, nil
	}
	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".ustlookup_history")
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       historyFile,
		HistoryLimit:      500,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"),
			readline.PcItem("columns"),
			readline.PcItem("reload"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		return nil, nil, false, eris.Wrap(err, "shell: init readline")
	}
	return rl, rl.Close, true, nil
}

// Run reads queries until EOF or exit
func (s *Shell) Run(ctx context.Context) error {
	if s.interactive {
		fmt.Fprintln(s.out, "Search by Facility ID, Site Name, or Address. Type help for commands.")
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		s.in.SetPrompt(prompt)
		line, err := s.in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return eris.Wrap(err, "shell: read")
		}
		quit, err := s.Execute(ctx, line)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Execute handles one line of input. It reports whether the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	input := strings.TrimSpace(line)
	switch strings.ToLower(input) {
	case "":
		return false, nil
	case "exit", "quit", `\q`:
		return true, nil
	case "help", "?":
		s.help()
		return false, nil
	case "columns":
		return false, render.Columns(s.out, render.Reports(s.svc.Dataset()))
	case "reload":
		if s.reload == nil {
			return false, eris.New("reload is not available")
		}
		if err := s.reload(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "dataset reloaded")
		return false, nil
	}

	chooser := NewPromptChooser(s.in, s.out, s.interactive)
	res, err := s.svc.Lookup(ctx, input, chooser)
	if err != nil {
		if errors.Is(err, lookup.ErrNoSelection) {
			fmt.Fprintln(s.out, "no facility selected")
			return false, nil
		}
		return false, err
	}
	zap.L().Debug("shell: lookup", zap.String("query", input), zap.String("status", string(res.Status)))
	if err := render.Text(s.out, res); err != nil {
		return false, err
	}
	for _, e := range res.Trace {
		fmt.Fprintf(s.out, "debug: %s: %s\n", e.Stage, e.Message)
	}
	return false, nil
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, `Commands:
  <query>   look up a facility by id, name or address
  columns   list loaded tables and detected columns
  reload    reload the source tables
  help      show this help
  exit      leave the shell`)
}

// Scanner reads lines from a non-interactive source
type Scanner struct {
	sc *bufio.Scanner
}

// NewScanner wraps r
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{sc: bufio.NewScanner(r)}
}

// Readline returns the next line or io.EOF
func (s *Scanner) Readline() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// SetPrompt is a no-op; prompts are not shown for piped input
func (s *Scanner) SetPrompt(string) {}

package shell

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ust-lookup/internal/facility"
	"github.com/ust-lookup/internal/table"
)

const maxAttempts = 3

// LineReader reads one line of input after showing a prompt.
// *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// PromptChooser asks the user to pick one of several matching facilities.
// When input is not interactive the first candidate is taken.
type PromptChooser struct {
	in          LineReader
	out         io.Writer
	interactive bool
}

// NewPromptChooser creates a chooser reading from in and listing to out
func NewPromptChooser(in LineReader, out io.Writer, interactive bool) *PromptChooser {
	return &PromptChooser{in: in, out: out, interactive: interactive}
}

// Choose implements lookup.Chooser. Answering q declines the choice.
func (c *PromptChooser) Choose(ctx context.Context, candidates []facility.Candidate) (table.Value, error) {
	if len(candidates) == 0 {
		return table.Null(), nil
	}
	if !c.interactive || c.in == nil {
		return candidates[0].ID, nil
	}

	fmt.Fprintln(c.out, "Multiple facilities matched your search. Choose one:")
	for i, cand := range candidates {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, cand.Label())
	}

	c.in.SetPrompt(fmt.Sprintf("choice [1-%d, Enter=1, q=cancel]> ", len(candidates)))
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return table.Null(), err
		}
		line, err := c.in.Readline()
		if err != nil {
			return table.Null(), eris.Wrap(err, "shell: read choice")
		}
		idx, err := ParseChoice(line, len(candidates))
		if err == errCancelled {
			return table.Null(), nil
		}
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		return candidates[idx].ID, nil
	}
	return table.Null(), eris.New("shell: too many invalid choices")
}

var errCancelled = eris.New("shell: choice cancelled")

// ParseChoice turns an answer into a zero-based candidate index. An empty
// answer selects the first candidate.
func ParseChoice(line string, n int) (int, error) {
	s := strings.TrimSpace(line)
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "q", "quit", "cancel":
		return 0, errCancelled
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > n {
		return 0, eris.Errorf("please answer a number between 1 and %d", n)
	}
	return i - 1, nil
}

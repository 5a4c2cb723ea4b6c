// Package ui provides interactive disambiguation choosers for the
// planner: a plain-terminal prompt and a tview full-screen list.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrChoiceAborted is returned when the user abandons a selection.
var ErrChoiceAborted = fmt.Errorf("selection aborted")

// StdioChooser prompts on a terminal with a numbered candidate list and
// reads the selection from standard input.
type StdioChooser struct {
	In  io.Reader
	Out io.Writer
}

// NewStdioChooser returns a chooser wired to stdin/stdout.
func NewStdioChooser() *StdioChooser {
	return &StdioChooser{In: os.Stdin, Out: os.Stdout}
}

// Choose displays the candidates and reads a 1-based selection until a
// valid one is given. Returns ErrChoiceAborted when input runs out.
func (c *StdioChooser) Choose(prompt string, candidates []string) (int, error) {
	fmt.Fprintf(c.Out, "%s:\n", prompt)
	for i, cand := range candidates {
		fmt.Fprintf(c.Out, "  %d) %s\n", i+1, cand)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprintf(c.Out, "Enter selection [1-%d]: ", len(candidates))
		if !scanner.Scan() {
			return 0, ErrChoiceAborted
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || n < 1 || n > len(candidates) {
			fmt.Fprintf(c.Out, "Invalid selection\n")
			continue
		}
		return n - 1, nil
	}
}

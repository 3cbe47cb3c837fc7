package shell

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrInterrupted is returned when the user presses Ctrl+C. Any partially entered
// command is discarded.
var ErrInterrupted = errors.New("interrupted")

// LineRequest describes the physical line the reader wants next.
type LineRequest struct {
	// Prompt is the rendered PS1 or PS2 prompt.
	Prompt string
	// Committed holds the lines of the current command already accepted, each
	// followed by a newline. It is empty on the first line.
	Committed string
	// FirstLine is true for the first line of a command.
	FirstLine bool
}

// LineSource yields physical lines of input.
// ReadLine returns the line without its terminating newline. It returns io.EOF when
// input is exhausted and ErrInterrupted when the user interrupts the line.
type LineSource interface {
	ReadLine(req LineRequest) (string, error)
}

// NewSource returns a Terminal when in is a terminal and a Plain source otherwise.
// Plain sources echo prompts to promptOut, which may be io.Discard.
func NewSource(in *os.File, out io.Writer, promptOut io.Writer, cfg TerminalConfig) (LineSource, error) {
	if term.IsTerminal(int(in.Fd())) {
		cfg.Stdin = in
		cfg.Stdout = out
		return NewTerminal(cfg)
	}
	return NewPlain(in, promptOut), nil
}

// CloseSource releases the source if it holds resources.
func CloseSource(source LineSource) error {
	if closer, ok := source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

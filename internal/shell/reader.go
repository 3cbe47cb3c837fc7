// Package shell reads complete commands from a line source. A command may span
// several physical lines when it ends in a backslash or leaves a quote open.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"readcommand/internal/history"
	"readcommand/internal/logger"
	"readcommand/internal/parser"
	"readcommand/internal/prompt"
)

// Command is one complete command entered by the user.
type Command struct {
	// Args are the parsed arguments, without vestigial empty ones.
	Args []string `json:"args" yaml:"args"`
	// Raw is the text as typed, physical lines joined by newlines.
	Raw string `json:"raw" yaml:"raw"`
}

// FirstLine returns the first physical line of the raw text.
func (c Command) FirstLine() string {
	line, _, _ := strings.Cut(c.Raw, "\n")
	return line
}

// Handler receives each command read by Loop, or ErrInterrupted. Returning false
// ends the loop.
type Handler func(cmd Command, err error) bool

// Reader assembles physical lines into commands.
type Reader struct {
	source  LineSource
	history *history.History
	logger  *log.Logger

	mu      sync.RWMutex
	prompts prompt.Prompts
}

// Option configures a Reader.
type Option func(*Reader)

// WithPrompts sets the prompt templates. They are rendered for the terminal.
func WithPrompts(p prompt.Prompts) Option {
	return func(r *Reader) {
		r.prompts = p.WithDefaults().Rendered()
	}
}

// WithHistory sets the history Loop records commands in.
func WithHistory(h *history.History) Option {
	return func(r *Reader) {
		r.history = h
	}
}

// WithLogger sets the reader's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// NewReader creates a Reader on source.
func NewReader(source LineSource, opts ...Option) *Reader {
	r := &Reader{
		source:  source,
		prompts: prompt.Defaults(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.history == nil {
		r.history = history.New(0)
	}
	if r.logger == nil {
		r.logger = logger.NewStyledLogger("Reader")
	}
	return r
}

// SetPrompts replaces the prompt templates, taking effect from the next line read.
func (r *Reader) SetPrompts(p prompt.Prompts) {
	rendered := p.WithDefaults().Rendered()
	r.mu.Lock()
	r.prompts = rendered
	r.mu.Unlock()
}

// Prompts returns the rendered prompts in use.
func (r *Reader) Prompts() prompt.Prompts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts
}

// History returns the history the reader records into.
func (r *Reader) History() *history.History {
	return r.history
}

// Read reads one complete command. Lines are requested until the accumulated text
// parses as closed. It returns ErrInterrupted if the user interrupts, io.EOF if
// input ends before a command starts, and io.ErrUnexpectedEOF if it ends inside one.
func (r *Reader) Read() (Command, error) {
	committed := ""
	firstLine := true

	for {
		prompts := r.Prompts()
		ps := prompts.PS2
		if firstLine {
			ps = prompts.PS1
		}

		line, err := r.source.ReadLine(LineRequest{Prompt: ps, Committed: committed, FirstLine: firstLine})
		if err != nil {
			if errors.Is(err, io.EOF) && !firstLine {
				return Command{}, fmt.Errorf("%w: input ended inside a command", io.ErrUnexpectedEOF)
			}
			if errors.Is(err, ErrInterrupted) && !firstLine {
				r.logger.Debug("discarding partial command", "lines", strings.Count(committed, "\n"))
			}
			return Command{}, err
		}

		result := parser.Parse(committed + line)
		if result.Closed() {
			args := result.Final()
			r.logger.Debug("command read", "args", args)
			return Command{Args: args, Raw: result.Text}, nil
		}

		r.logger.Debug("command continues", "open", result.Open)
		committed = result.Text + "\n"
		firstLine = false
	}
}

// Loop reads commands until the handler returns false or input ends.
// The first line of every non-empty command is added to the history before the
// handler runs. Interrupts are passed to the handler. Loop returns nil at end of
// input and any other read error as is.
func (r *Reader) Loop(handler Handler) error {
	for {
		cmd, err := r.Read()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil && !errors.Is(err, ErrInterrupted):
			return err
		case err == nil && cmd.Raw != "":
			r.history.Add(cmd.FirstLine())
		}

		if !handler(cmd, err) {
			return nil
		}
	}
}

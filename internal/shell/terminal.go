package shell

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"readcommand/internal/autocomplete"
	"readcommand/internal/history"
	"readcommand/internal/logger"
)

// TerminalConfig configures a Terminal line source.
type TerminalConfig struct {
	// Stdin and Stdout default to the process streams.
	Stdin  io.ReadCloser
	Stdout io.Writer
	// History is navigated with the up and down keys on the first line of a command.
	History *history.History
	// Complete supplies Tab completion candidates. Nil disables completion.
	Complete autocomplete.Func
	Logger   *log.Logger
}

// Terminal reads lines from an interactive terminal with line editing.
type Terminal struct {
	rl        *readline.Instance
	history   *history.History
	completer *completer
	logger    *log.Logger

	mu     sync.Mutex
	cursor *history.Cursor
}

// NewTerminal creates a Terminal. readline's own history is disabled; up and down
// keys are served from cfg.History.
func NewTerminal(cfg TerminalConfig) (*Terminal, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewStyledLogger("Terminal")
	}
	if cfg.History == nil {
		cfg.History = history.New(0)
	}

	t := &Terminal{
		history:   cfg.History,
		completer: newCompleter(cfg.Complete, cfg.Logger),
		logger:    cfg.Logger,
	}

	rlConfig := &readline.Config{
		Stdin:                  cfg.Stdin,
		Stdout:                 cfg.Stdout,
		HistoryLimit:           -1,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		FuncFilterInputRune:    t.filterInput,
	}
	if cfg.Complete != nil {
		rlConfig.AutoComplete = t.completer
		rlConfig.Listener = t.completer
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	rl.HistoryDisable()
	t.rl = rl

	return t, nil
}

// ReadLine implements LineSource.
func (t *Terminal) ReadLine(req LineRequest) (string, error) {
	t.mu.Lock()
	t.cursor = nil
	if req.FirstLine {
		t.cursor = t.history.Cursor()
	}
	t.mu.Unlock()

	t.completer.reset(req.Committed)
	t.rl.SetPrompt(req.Prompt)

	line, err := t.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", fmt.Errorf("failed to read line: %w", err)
	}
	return line, nil
}

// Stdout returns a writer that keeps the prompt intact while printing.
func (t *Terminal) Stdout() io.Writer {
	return t.rl.Stdout()
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}

// filterInput serves up and down keys from the history cursor. readline never sees
// them, so its own history stays out of the way.
func (t *Terminal) filterInput(r rune) (rune, bool) {
	if r != readline.CharPrev && r != readline.CharNext {
		return r, true
	}

	t.mu.Lock()
	entry, ok := navigate(t.cursor, r)
	t.mu.Unlock()

	if ok {
		t.logger.Debug("history navigation", "entry", entry)
		t.rl.Operation.SetBuffer(entry)
	}
	return r, false
}

package shell

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"readcommand/internal/autocomplete"
	"readcommand/internal/history"
)

// completer adapts autocomplete.Complete to readline.
//
// readline can only insert text at the cursor, so candidates that extend the typed
// argument are returned as suffixes from Do. When the candidates rewrite what was
// typed, usually by adding quotes, Do returns nothing and schedules a rewrite that
// OnChange applies right after the Tab key is handled.
type completer struct {
	fn     autocomplete.Func
	logger *log.Logger

	mu        sync.Mutex
	committed string
	pending   *rewrite
}

type rewrite struct {
	line    string
	pos     int
	newLine []rune
	newPos  int
}

var (
	_ readline.AutoCompleter = (*completer)(nil)
	_ readline.Listener      = (*completer)(nil)
)

func newCompleter(fn autocomplete.Func, logger *log.Logger) *completer {
	return &completer{fn: fn, logger: logger}
}

// reset prepares the completer for a new physical line.
func (c *completer) reset(committed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = committed
	c.pending = nil
}

// Do implements readline.AutoCompleter.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	c.mu.Lock()
	committed := c.committed
	c.pending = nil
	c.mu.Unlock()

	fragment := string(line[:pos])
	completion, err := autocomplete.Complete(committed, fragment, c.fn)
	if err != nil {
		c.logger.Debug("completion failed", "error", err)
		return nil, 0
	}
	if len(completion.Candidates) == 0 {
		return nil, 0
	}

	toReplace := completion.ToReplace
	suffixes := make([][]rune, 0, len(completion.Candidates))
	for _, candidate := range completion.Candidates {
		if strings.HasPrefix(candidate, toReplace) {
			suffixes = append(suffixes, []rune(candidate[len(toReplace):]))
		}
	}
	if len(suffixes) == len(completion.Candidates) {
		return suffixes, utf8.RuneCountInString(toReplace)
	}

	common := commonPrefix(completion.Candidates)
	if common == "" || common == toReplace {
		return suffixes, utf8.RuneCountInString(toReplace)
	}

	head := fragment[:len(fragment)-len(toReplace)] + common
	c.mu.Lock()
	c.pending = &rewrite{
		line:    string(line),
		pos:     pos,
		newLine: []rune(head + string(line[pos:])),
		newPos:  utf8.RuneCountInString(head),
	}
	c.mu.Unlock()

	return nil, 0
}

// OnChange implements readline.Listener. It applies a rewrite scheduled by Do for
// the Tab key that triggered it and ignores every other change.
func (c *completer) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p == nil || key != readline.CharTab || pos != p.pos || string(line) != p.line {
		return nil, 0, false
	}
	return p.newLine, p.newPos, true
}

// commonPrefix returns the longest rune-aligned prefix shared by all values.
func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, value := range values[1:] {
		n := 0
		for n < len(prefix) && n < len(value) && prefix[n] == value[n] {
			n++
		}
		prefix = prefix[:n]
	}
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

// navigate applies an up or down key to the history cursor. It reports the entry
// to show and whether the line should be replaced.
func navigate(cursor *history.Cursor, key rune) (string, bool) {
	if cursor == nil {
		return "", false
	}
	switch key {
	case readline.CharPrev:
		return cursor.Prev()
	case readline.CharNext:
		return cursor.Next()
	default:
		return "", false
	}
}

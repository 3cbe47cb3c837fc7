package shell

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readcommand/internal/autocomplete"
	"readcommand/internal/history"
)

func staticCompletion(candidates ...string) autocomplete.Func {
	return func([]string) ([]string, error) {
		return candidates, nil
	}
}

func runesOf(values ...string) [][]rune {
	out := make([][]rune, len(values))
	for i, v := range values {
		out[i] = []rune(v)
	}
	return out
}

func TestCompleter_Do(t *testing.T) {
	tests := []struct {
		name           string
		committed      string
		line           string
		pos            int
		fn             autocomplete.Func
		expected       [][]rune
		expectedLength int
	}{
		{
			name:           "extends the typed argument",
			line:           "git ch",
			pos:            6,
			fn:             staticCompletion("checkout", "cherry-pick"),
			expected:       runesOf("eckout ", "erry-pick "),
			expectedLength: 2,
		},
		{
			name:           "new argument",
			line:           "git ",
			pos:            4,
			fn:             staticCompletion("status"),
			expected:       runesOf("status "),
			expectedLength: 0,
		},
		{
			name:           "continuation line",
			committed:      "git \\\n",
			line:           "ch",
			pos:            2,
			fn:             staticCompletion("checkout"),
			expected:       runesOf("eckout "),
			expectedLength: 2,
		},
		{
			name:           "quoted argument keeps its quote",
			line:           `say "hello w`,
			pos:            12,
			fn:             staticCompletion("hello world"),
			expected:       runesOf(`orld" `),
			expectedLength: 8,
		},
		{
			name:           "multi-byte prefix",
			line:           "open café",
			pos:            9,
			fn:             staticCompletion("cafés"),
			expected:       runesOf("s "),
			expectedLength: 4,
		},
		{
			name: "aborted completion",
			line: "my \"args\nare",
			pos:  12,
			fn:   staticCompletion("never"),
		},
		{
			name: "no candidates",
			line: "git zz",
			pos:  6,
			fn:   staticCompletion(),
		},
		{
			name: "completion error",
			line: "git ",
			pos:  4,
			fn: func([]string) ([]string, error) {
				return nil, errors.New("catalog unavailable")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompleter(tt.fn, log.New(io.Discard))
			c.reset(tt.committed)

			suffixes, length := c.Do([]rune(tt.line), tt.pos)

			if tt.expected == nil {
				assert.Empty(t, suffixes)
				assert.Equal(t, 0, length)
				return
			}
			assert.Equal(t, tt.expected, suffixes)
			assert.Equal(t, tt.expectedLength, length)
		})
	}
}

func TestCompleter_Do_PassesArguments(t *testing.T) {
	var received []string
	c := newCompleter(func(args []string) ([]string, error) {
		received = args
		return nil, nil
	}, log.New(io.Discard))
	c.reset("first line \\\n")

	c.Do([]rune(`"my argument"`), 13)

	assert.Equal(t, []string{"first", "line", "my argument"}, received)
}

func TestCompleter_RewriteOnTab(t *testing.T) {
	tests := []struct {
		name            string
		line            string
		pos             int
		candidates      []string
		expectedLine    string
		expectedPos     int
		expectedNothing bool
	}{
		{
			name:         "single candidate needing quotes",
			line:         "run my",
			pos:          6,
			candidates:   []string{"my command"},
			expectedLine: `run "my command" `,
			expectedPos:  17,
		},
		{
			name:         "text after the cursor is kept",
			line:         "run my tail",
			pos:          6,
			candidates:   []string{"my command"},
			expectedLine: `run "my command"  tail`,
			expectedPos:  17,
		},
		{
			name:         "several candidates share an opening quote",
			line:         "run my",
			pos:          6,
			candidates:   []string{"my first", "my second"},
			expectedLine: `run "my `,
			expectedPos:  8,
		},
		{
			name:         "escaped first character is replaced with its backslash",
			line:         `cmd \-`,
			pos:          6,
			candidates:   []string{"-v"},
			expectedLine: "cmd -v ",
			expectedPos:  7,
		},
		{
			name:            "no common prefix",
			line:            "run x",
			pos:             5,
			candidates:      []string{"a b", "c"},
			expectedNothing: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompleter(staticCompletion(tt.candidates...), log.New(io.Discard))
			c.reset("")

			suffixes, _ := c.Do([]rune(tt.line), tt.pos)
			assert.Empty(t, suffixes)

			newLine, newPos, ok := c.OnChange([]rune(tt.line), tt.pos, readline.CharTab)
			if tt.expectedNothing {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.expectedLine, string(newLine))
			assert.Equal(t, tt.expectedPos, newPos)

			_, _, ok = c.OnChange(newLine, newPos, readline.CharTab)
			assert.False(t, ok, "rewrite applies once")
		})
	}
}

func TestCompleter_OnChange_IgnoresOtherKeys(t *testing.T) {
	c := newCompleter(staticCompletion("my command"), log.New(io.Discard))
	c.reset("")

	c.Do([]rune("run my"), 6)
	_, _, ok := c.OnChange([]rune("run my"), 6, 'x')
	assert.False(t, ok)

	_, _, ok = c.OnChange([]rune("run my"), 6, readline.CharTab)
	assert.False(t, ok, "pending rewrite was dropped")
}

func TestCompleter_OnChange_LineChanged(t *testing.T) {
	c := newCompleter(staticCompletion("my command"), log.New(io.Discard))
	c.reset("")

	c.Do([]rune("run my"), 6)
	_, _, ok := c.OnChange([]rune("run myx"), 7, readline.CharTab)
	assert.False(t, ok)
}

func TestCompleter_InitialListenerCall(t *testing.T) {
	c := newCompleter(staticCompletion(), log.New(io.Discard))

	_, _, ok := c.OnChange(nil, 0, 0)
	assert.False(t, ok)
}

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected string
	}{
		{name: "empty", values: nil, expected: ""},
		{name: "single", values: []string{"abc"}, expected: "abc"},
		{name: "shared", values: []string{`"my a" `, `"my b" `}, expected: `"my `},
		{name: "none", values: []string{"abc", "xyz"}, expected: ""},
		{name: "rune aligned", values: []string{"café", "cafè"}, expected: "caf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, commonPrefix(tt.values))
		})
	}
}

func TestNavigate(t *testing.T) {
	h := history.New(0)
	h.Add("ls")
	h.Add("pwd")
	cursor := h.Cursor()

	entry, ok := navigate(cursor, readline.CharPrev)
	require.True(t, ok)
	assert.Equal(t, "pwd", entry)

	entry, ok = navigate(cursor, readline.CharPrev)
	require.True(t, ok)
	assert.Equal(t, "ls", entry)

	_, ok = navigate(cursor, readline.CharPrev)
	assert.False(t, ok)

	entry, ok = navigate(cursor, readline.CharNext)
	require.True(t, ok)
	assert.Equal(t, "pwd", entry)

	entry, ok = navigate(cursor, readline.CharNext)
	require.True(t, ok)
	assert.Equal(t, "", entry)

	_, ok = navigate(cursor, 'a')
	assert.False(t, ok)

	_, ok = navigate(nil, readline.CharPrev)
	assert.False(t, ok, "continuation lines have no cursor")
}

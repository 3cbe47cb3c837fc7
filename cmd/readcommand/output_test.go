package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"readcommand/internal/catalog"
	"readcommand/internal/shell"
)

func TestWriteCommand(t *testing.T) {
	tests := []struct {
		name     string
		cmd      shell.Command
		expected string
	}{
		{
			name:     "simple",
			cmd:      shell.Command{Args: []string{"curl", "https://x", "--insecure"}, Raw: "curl https://x --insecure"},
			expected: "args: [\"curl\",\"https://x\",\"--insecure\"]\nraw: \"curl https://x --insecure\"\n",
		},
		{
			name:     "multi-line with html characters",
			cmd:      shell.Command{Args: []string{"a<b", "c\nd"}, Raw: "a<b \"c\nd\""},
			expected: "args: [\"a<b\",\"c\\nd\"]\nraw: \"a<b \\\"c\\nd\\\"\"\n",
		},
		{
			name:     "empty",
			cmd:      shell.Command{Args: []string{}},
			expected: "args: []\nraw: \"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCommand(&buf, tt.cmd))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteOutput(t *testing.T) {
	cmd := shell.Command{Args: []string{"ls"}, Raw: "ls"}

	t.Run("text command", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatText, cmd))
		assert.Equal(t, "args: [\"ls\"]\nraw: \"ls\"\n", buf.String())
	})

	t.Run("json command", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, "JSON", cmd))
		assert.JSONEq(t, `{"args":["ls"],"raw":"ls"}`, buf.String())
	})

	t.Run("yaml command", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeOutput(&buf, formatYAML, cmd))

		var decoded shell.Command
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, cmd, decoded)
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeOutput(&buf, "xml", cmd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})
}

func TestNewParseReport(t *testing.T) {
	report := newParseReport(`say "hello world" \`)

	assert.Equal(t, "escape", report.Open)
	require.Len(t, report.Args, 3)
	assert.Equal(t, "say", report.Args[0].Text)
	assert.Equal(t, "hello world", report.Args[1].Text)
	assert.Equal(t, `"`, report.Args[1].Quote)
	require.NotNil(t, report.Args[1].Start)
	assert.Equal(t, 4, *report.Args[1].Start)
	assert.Nil(t, report.Args[2].Start)
	assert.Equal(t, []string{"say", "hello world"}, report.Final)
}

func TestNewCompleteReport(t *testing.T) {
	cat := catalog.Default()

	t.Run("candidates", func(t *testing.T) {
		report, err := newCompleteReport("", "git ch", cat.Complete)
		require.NoError(t, err)

		assert.False(t, report.Aborted)
		assert.Equal(t, []string{"git", "ch"}, report.Arguments)
		assert.Equal(t, []string{"checkout ", "cherry-pick "}, report.Candidates)
		assert.Equal(t, "ch", report.ToReplace)
	})

	t.Run("aborted", func(t *testing.T) {
		report, err := newCompleteReport("my args\\\n", "are", cat.Complete)
		require.NoError(t, err)

		assert.True(t, report.Aborted)
		assert.Empty(t, report.Arguments)
		assert.Empty(t, report.Candidates)
		assert.Equal(t, "are", report.ToReplace)
	})

	t.Run("callback error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := newCompleteReport("", "x", func([]string) ([]string, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	})
}

func TestJoinCommitted(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{name: "no lines", lines: nil, expected: ""},
		{name: "trailing escape", lines: []string{`my args\`}, expected: "my args\\\n"},
		{name: "backslash n stays an escape", lines: []string{`a\nb`}, expected: "a\\nb\n"},
		{name: "several lines", lines: []string{`echo "one`, "two"}, expected: "echo \"one\ntwo\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinCommitted(tt.lines))
		})
	}
}

func TestJoinCommitted_WithCompleteReport(t *testing.T) {
	fn := func([]string) ([]string, error) { return []string{"xyz"}, nil }

	report, err := newCompleteReport(joinCommitted([]string{`a \nb`}), "x", fn)
	require.NoError(t, err)
	assert.False(t, report.Aborted)
	assert.Equal(t, []string{"a", "nb", "x"}, report.Arguments)
	assert.Equal(t, []string{"xyz "}, report.Candidates)
	assert.Equal(t, "x", report.ToReplace)
}

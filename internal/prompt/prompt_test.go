package prompt

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func withProfile(t *testing.T, profile termenv.Profile) {
	t.Helper()
	original := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(profile)
	t.Cleanup(func() { lipgloss.SetColorProfile(original) })
}

func TestRender_Colors(t *testing.T) {
	withProfile(t, termenv.ANSI256)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "named color", input: "{{color:red}}error{{/color}}> ", expected: "error> "},
		{name: "semantic color", input: "{{color:info}}rc{{/color}}> ", expected: "rc> "},
		{name: "hex color", input: "{{color:#ff0000}}custom{{/color}}", expected: "custom"},
		{name: "bold", input: "{{bold}}$ {{/bold}}", expected: "$ "},
		{name: "combined", input: "{{color:green}}ok{{/color}} {{underline}}>{{/underline}} ", expected: "ok > "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Render(tt.input)
			assert.NotEqual(t, tt.input, result)
			assert.Equal(t, tt.expected, ansi.Strip(result))
		})
	}
}

func TestRender_NoMarkup(t *testing.T) {
	withProfile(t, termenv.ANSI256)

	assert.Equal(t, "> ", Render("> "))
}

func TestRender_MismatchedStyleTags(t *testing.T) {
	withProfile(t, termenv.ANSI256)

	input := "{{bold}}x{{/italic}}"
	assert.Equal(t, input, Render(input))
}

func TestRender_ASCIIFallback(t *testing.T) {
	withProfile(t, termenv.Ascii)

	assert.False(t, ColorSupported())
	assert.Equal(t, "user> ", Render("{{color:blue}}user{{/color}}{{bold}}>{{/bold}} "))
}

func TestPrompts_WithDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    Prompts
		expected Prompts
	}{
		{name: "empty", input: Prompts{}, expected: Defaults()},
		{name: "custom ps1", input: Prompts{PS1: "$ "}, expected: Prompts{PS1: "$ ", PS2: DefaultPS2}},
		{name: "both set", input: Prompts{PS1: "$ ", PS2: ". "}, expected: Prompts{PS1: "$ ", PS2: ". "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.WithDefaults())
		})
	}
}

func TestPrompts_Rendered(t *testing.T) {
	withProfile(t, termenv.Ascii)

	p := Prompts{PS1: "{{color:info}}rc{{/color}}> ", PS2: "{{bold}}..{{/bold}} "}.Rendered()
	assert.Equal(t, Prompts{PS1: "rc> ", PS2: ".. "}, p)
}

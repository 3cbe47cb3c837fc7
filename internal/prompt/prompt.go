// Package prompt renders the primary and continuation prompts shown by the reader.
// Prompt templates may carry colour markup such as {{color:info}}text{{/color}}
// or {{bold}}text{{/bold}}, which is converted to ANSI escape codes with lipgloss.
package prompt

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	// DefaultPS1 is shown for the first line of a command.
	DefaultPS1 = "> "
	// DefaultPS2 is shown for continuation lines.
	DefaultPS2 = "> "
)

var (
	colorRegex = regexp.MustCompile(`\{\{color:([^}]+)\}\}(.*?)\{\{/color\}\}`)
	styleRegex = regexp.MustCompile(`\{\{(bold|italic|underline)\}\}(.*?)\{\{/(bold|italic|underline)\}\}`)
)

// Prompts is a pair of prompt templates.
type Prompts struct {
	PS1 string
	PS2 string
}

// Defaults returns the default prompt pair.
func Defaults() Prompts {
	return Prompts{PS1: DefaultPS1, PS2: DefaultPS2}
}

// WithDefaults fills empty templates with the defaults.
func (p Prompts) WithDefaults() Prompts {
	if p.PS1 == "" {
		p.PS1 = DefaultPS1
	}
	if p.PS2 == "" {
		p.PS2 = DefaultPS2
	}
	return p
}

// Rendered returns both prompts with their markup processed.
func (p Prompts) Rendered() Prompts {
	return Prompts{PS1: Render(p.PS1), PS2: Render(p.PS2)}
}

// Render processes color and style markup in a prompt template.
// When the terminal has no colour support the markup is removed and the text kept.
func Render(template string) string {
	if !ColorSupported() {
		return Strip(template)
	}

	result := colorRegex.ReplaceAllStringFunc(template, func(match string) string {
		matches := colorRegex.FindStringSubmatch(match)
		if len(matches) != 3 {
			return match
		}
		return colorStyle(matches[1]).Render(matches[2])
	})

	return styleRegex.ReplaceAllStringFunc(result, func(match string) string {
		matches := styleRegex.FindStringSubmatch(match)
		if len(matches) != 4 || matches[1] != matches[3] {
			return match
		}
		return textStyle(matches[1]).Render(matches[2])
	})
}

// Strip removes markup from a template, keeping the enclosed text.
func Strip(template string) string {
	result := colorRegex.ReplaceAllString(template, "$2")
	return styleRegex.ReplaceAllStringFunc(result, func(match string) string {
		matches := styleRegex.FindStringSubmatch(match)
		if len(matches) != 4 || matches[1] != matches[3] {
			return match
		}
		return matches[2]
	})
}

// ColorSupported reports whether the output profile can show colours.
func ColorSupported() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}

func colorStyle(spec string) lipgloss.Style {
	style := lipgloss.NewStyle()

	if strings.HasPrefix(spec, "#") {
		return style.Foreground(lipgloss.Color(spec))
	}

	switch strings.ToLower(spec) {
	case "info", "blue":
		return style.Foreground(lipgloss.Color("4"))
	case "success", "green":
		return style.Foreground(lipgloss.Color("2"))
	case "warning", "yellow":
		return style.Foreground(lipgloss.Color("3"))
	case "error", "red":
		return style.Foreground(lipgloss.Color("1"))
	case "magenta", "purple":
		return style.Foreground(lipgloss.Color("5"))
	case "cyan":
		return style.Foreground(lipgloss.Color("6"))
	case "white":
		return style.Foreground(lipgloss.Color("7"))
	case "gray", "grey":
		return style.Foreground(lipgloss.Color("8"))
	default:
		return style.Foreground(lipgloss.Color(spec))
	}
}

func textStyle(name string) lipgloss.Style {
	switch name {
	case "bold":
		return lipgloss.NewStyle().Bold(true)
	case "italic":
		return lipgloss.NewStyle().Italic(true)
	case "underline":
		return lipgloss.NewStyle().Underline(true)
	default:
		return lipgloss.NewStyle()
	}
}

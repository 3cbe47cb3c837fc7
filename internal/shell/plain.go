package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Plain reads lines from a non-interactive stream such as a pipe or a file.
// It offers no completion and no history navigation.
type Plain struct {
	r *bufio.Reader
	w io.Writer
	// strip removes ANSI sequences from prompts written to a non-terminal.
	strip bool
}

// NewPlain creates a Plain source reading from r and writing prompts to w.
// A nil w discards prompts. Colour codes are kept only when w is a terminal.
func NewPlain(r io.Reader, w io.Writer) *Plain {
	if w == nil {
		w = io.Discard
	}
	return &Plain{r: bufio.NewReader(r), w: w, strip: !isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ReadLine implements LineSource.
func (p *Plain) ReadLine(req LineRequest) (string, error) {
	ps := req.Prompt
	if p.strip {
		ps = ansi.Strip(ps)
	}
	if _, err := io.WriteString(p.w, ps); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read line: %w", err)
		}
		if line == "" {
			return "", io.EOF
		}
	}

	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

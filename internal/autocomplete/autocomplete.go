// Package autocomplete derives tab-completion context from a partially typed command.
//
// A command may span several physical lines. The committed buffer holds the lines
// already accepted by the reader and the fragment holds the line being edited. Only
// the last argument can be completed, and only when it lies entirely on the current
// line.
package autocomplete

import (
	"strings"

	"readcommand/internal/parser"
)

// Func produces replacement candidates for the given arguments.
// The last element is the argument being completed; it is empty when the cursor
// starts a fresh argument.
type Func func(args []string) ([]string, error)

// Completion is the rendered outcome of a completion request.
type Completion struct {
	// Candidates are ready to be inserted in place of ToReplace.
	Candidates []string
	// ToReplace is the tail of the fragment the candidates replace.
	ToReplace string
}

// position locates the argument under the cursor within committed+fragment.
type position struct {
	full   string
	result parser.Result
	last   parser.Argument
	start  int
}

// locate parses the full command and pins a cliffhanger to the cursor.
func locate(committed, fragment string) position {
	full := committed + fragment
	result := parser.Parse(full)
	last := result.Last()

	start := len(full)
	if last.Started() {
		start = *last.Start
	}

	return position{full: full, result: result, last: last, start: start}
}

// Arguments returns the arguments to hand to a completion function. It reports false
// when completion should not be offered: the command ends in an escape, or the
// argument under the cursor began on a line that was already accepted.
func Arguments(committed, fragment string) ([]string, bool) {
	pos := locate(committed, fragment)

	if pos.result.Open == parser.OpenEscape {
		return nil, false
	}
	if strings.Contains(pos.full[pos.start:], "\n") {
		return nil, false
	}

	args := filterArguments(pos.result.Args)
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg.Text
	}
	return out, true
}

// filterArguments drops vestigial arguments except the last one, which marks whether
// the cursor is inside an argument or starting a new one. A lone vestigial argument
// means nothing was typed at all.
func filterArguments(args []parser.Argument) []parser.Argument {
	kept := make([]parser.Argument, 0, len(args))
	for i, arg := range args {
		if i == len(args)-1 || !arg.Vestigial() {
			kept = append(kept, arg)
		}
	}

	if len(kept) == 1 && kept[0].Vestigial() {
		return kept[:0]
	}
	return kept
}

// Replacements renders candidates for insertion and returns the substring of the
// fragment they replace. Candidates are re-quoted with the argument's own quote, or
// with double quotes when they contain a space or newline, and always end in a space.
func Replacements(committed, fragment string, candidates []string) ([]string, string) {
	if len(candidates) == 0 {
		return []string{}, fragment
	}

	pos := locate(committed, fragment)

	distance := columnOf(pos.full, pos.start)
	if distance > len(fragment) {
		distance = len(fragment)
	}
	toReplace := fragment[distance:]

	rendered := make([]string, len(candidates))
	for i, candidate := range candidates {
		if pos.last.Quoted() || strings.ContainsAny(candidate, " \n") {
			quote := string(parser.QuoteDouble)
			if pos.last.Quoted() {
				quote = string(pos.last.Quote)
			}
			candidate = quote + candidate + quote
		}
		rendered[i] = candidate + " "
	}

	return rendered, toReplace
}

// columnOf returns how far index is from the last newline before it.
func columnOf(s string, index int) int {
	if index > len(s) {
		index = len(s)
	}
	newline := strings.LastIndex(s[:index], "\n")
	if newline == -1 {
		return index
	}
	return index - newline - 1
}

// Complete resolves the completion context, asks fn for candidates and renders them.
// A zero Completion with ToReplace set to the fragment is returned when completion is
// not applicable or fn offers nothing.
func Complete(committed, fragment string, fn Func) (Completion, error) {
	none := Completion{Candidates: []string{}, ToReplace: fragment}
	if fn == nil {
		return none, nil
	}

	args, ok := Arguments(committed, fragment)
	if !ok {
		return none, nil
	}

	candidates, err := fn(args)
	if err != nil {
		return none, err
	}

	rendered, toReplace := Replacements(committed, fragment, candidates)
	return Completion{Candidates: rendered, ToReplace: toReplace}, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"readcommand/internal/autocomplete"
	"readcommand/internal/parser"
	"readcommand/internal/shell"
)

// Output formats accepted by --output.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type parsedArgument struct {
	Text  string `json:"text" yaml:"text"`
	Start *int   `json:"start" yaml:"start"`
	Quote string `json:"quote,omitempty" yaml:"quote,omitempty"`
}

type parseReport struct {
	Args  []parsedArgument `json:"args" yaml:"args"`
	Open  string           `json:"open" yaml:"open"`
	Final []string         `json:"final" yaml:"final"`
}

type completeReport struct {
	Arguments  []string `json:"arguments" yaml:"arguments"`
	Aborted    bool     `json:"aborted" yaml:"aborted"`
	Candidates []string `json:"candidates" yaml:"candidates"`
	ToReplace  string   `json:"toReplace" yaml:"toReplace"`
}

func newParseReport(text string) parseReport {
	result := parser.Parse(text)

	report := parseReport{
		Args:  make([]parsedArgument, len(result.Args)),
		Open:  result.Open.String(),
		Final: result.Final(),
	}
	for i, arg := range result.Args {
		report.Args[i] = parsedArgument{Text: arg.Text, Start: arg.Start}
		if arg.Quoted() {
			report.Args[i].Quote = string(arg.Quote)
		}
	}
	return report
}

func newCompleteReport(committed, fragment string, fn autocomplete.Func) (completeReport, error) {
	args, ok := autocomplete.Arguments(committed, fragment)
	report := completeReport{
		Arguments:  args,
		Aborted:    !ok,
		Candidates: []string{},
		ToReplace:  fragment,
	}
	if !ok {
		report.Arguments = []string{}
		return report, nil
	}

	completion, err := autocomplete.Complete(committed, fragment, fn)
	if err != nil {
		return report, fmt.Errorf("completion failed: %w", err)
	}
	report.Candidates = completion.Candidates
	report.ToReplace = completion.ToReplace
	return report, nil
}

// writeOutput renders v in the requested format. text falls back to JSON for
// values without a text form.
func writeOutput(w io.Writer, format string, v any) error {
	format = strings.ToLower(format)
	switch format {
	case formatJSON, formatText, "":
		if cmd, ok := v.(shell.Command); ok && format != formatJSON {
			return writeCommand(w, cmd)
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// writeCommand prints a command the way the interactive loop shows it.
func writeCommand(w io.Writer, cmd shell.Command) error {
	args, err := compactJSON(cmd.Args)
	if err != nil {
		return err
	}
	raw, err := compactJSON(cmd.Raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "args: %s\nraw: %s\n", args, raw)
	return err
}

func compactJSON(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

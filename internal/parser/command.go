// Package parser tokenizes shell-style command strings into arguments.
// It honours single quotes, double quotes and backslash escapes, and reports whether
// the command was left open so that a reader can ask for another line of input.
package parser

import "unicode/utf8"

// OpenReason describes why a command string could not be closed.
type OpenReason int

const (
	// OpenNone means the command is complete.
	OpenNone OpenReason = iota
	// OpenEscape means the input ended right after a backslash.
	OpenEscape
	// OpenQuote means the input ended inside an unterminated quote.
	OpenQuote
)

// String returns the lowercase name of the reason.
func (r OpenReason) String() string {
	switch r {
	case OpenEscape:
		return "escape"
	case OpenQuote:
		return "quote"
	default:
		return "none"
	}
}

// QuoteChar is the quote an argument began with. The zero value means unquoted.
type QuoteChar byte

const (
	QuoteNone   QuoteChar = 0
	QuoteSingle QuoteChar = '\''
	QuoteDouble QuoteChar = '"'
)

// Argument is a single tokenized argument.
type Argument struct {
	// Text is the unquoted, unescaped content.
	Text string
	// Start is the byte offset into the input where the argument began.
	// It is nil for a cliffhanger: an argument that never received a character.
	Start *int
	// Quote is the quote the argument began with, if any.
	Quote QuoteChar
}

// Quoted reports whether the argument began inside a quote.
func (a Argument) Quoted() bool {
	return a.Quote != QuoteNone
}

// Started reports whether any character contributed to the argument.
func (a Argument) Started() bool {
	return a.Start != nil
}

// Vestigial reports whether the argument is an empty, unquoted leftover of whitespace.
func (a Argument) Vestigial() bool {
	return !a.Quoted() && a.Text == ""
}

// Result is the outcome of parsing a command string.
type Result struct {
	Args []Argument
	Open OpenReason
	// Text is the string to continue from when the command is open.
	Text string
}

// Closed reports whether the command is complete.
func (r Result) Closed() bool {
	return r.Open == OpenNone
}

// Last returns the final argument. Parse always produces at least one.
func (r Result) Last() Argument {
	return r.Args[len(r.Args)-1]
}

// Final returns the argument texts to deliver for a completed command.
// Empty unquoted arguments are dropped; "--verbose ''" keeps its empty string while
// "--verbose " does not.
func (r Result) Final() []string {
	out := make([]string, 0, len(r.Args))
	for _, arg := range r.Args {
		if arg.Vestigial() {
			continue
		}
		out = append(out, arg.Text)
	}
	return out
}

type quoteState int

const (
	quoteOff quoteState = iota
	quoteInSingle
	quoteInDouble
)

// Parse tokenizes input as a shell command. It never fails: every string has a result.
// The whole buffer is scanned on each call; callers continuing a multi-line command
// must pass the full accumulated text, not just the newest line.
func Parse(input string) Result {
	var (
		args     []Argument
		current  argumentBuilder
		quote    quoteState
		escape   bool
		escapeAt int
	)

	for i := 0; i < len(input); {
		c, size := utf8.DecodeRuneInString(input[i:])
		// raw keeps invalid UTF-8 bytes as typed instead of U+FFFD.
		raw := input[i : i+size]

		switch {
		case escape:
			// An escaped newline is a line continuation and leaves no trace.
			if c != '\n' {
				current.begin(escapeAt, QuoteNone)
				current.appendRaw(raw)
			}
			escape = false
		case c == '\\':
			escape = true
			escapeAt = i
		case quote == quoteInDouble:
			if c == '"' {
				quote = quoteOff
			} else {
				current.appendRaw(raw)
			}
		case quote == quoteInSingle:
			if c == '\'' {
				quote = quoteOff
			} else {
				current.appendRaw(raw)
			}
		case c == ' ' || c == '\n':
			args = append(args, current.build())
			current = argumentBuilder{}
		case c == '"':
			current.begin(i, QuoteDouble)
			quote = quoteInDouble
		case c == '\'':
			current.begin(i, QuoteSingle)
			quote = quoteInSingle
		default:
			current.begin(i, QuoteNone)
			current.appendRaw(raw)
		}
		i += size
	}

	args = append(args, current.build())

	result := Result{Args: args, Text: input}
	switch {
	case escape:
		result.Open = OpenEscape
	case quote != quoteOff:
		result.Open = OpenQuote
	default:
		result.Open = OpenNone
	}
	return result
}

type argumentBuilder struct {
	text    []byte
	start   int
	started bool
	quote   QuoteChar
}

// begin records where the argument started. Later calls are ignored.
func (b *argumentBuilder) begin(index int, quote QuoteChar) {
	if b.started {
		return
	}
	b.started = true
	b.start = index
	b.quote = quote
}

func (b *argumentBuilder) appendRaw(raw string) {
	b.text = append(b.text, raw...)
}

func (b *argumentBuilder) build() Argument {
	arg := Argument{Text: string(b.text), Quote: b.quote}
	if b.started {
		start := b.start
		arg.Start = &start
	}
	return arg
}

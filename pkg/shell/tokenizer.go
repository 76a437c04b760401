package shell

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrUnclosedQuote  = errors.New("no closing quotation")
	ErrTrailingEscape = errors.New("no escaped character")
)

// ParseError reports a quoting defect in an input line.
type ParseError struct {
	Line string
	Pos  int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrParse) match tokenizer failures.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

type lexState int

const (
	stateOutside lexState = iota
	stateSingleQuote
	stateDoubleQuote
)

// word accumulates one token. started is set once a quote opens so that
// '' and "" yield an empty argument.
type word struct {
	b       strings.Builder
	started bool
}

func (w *word) add(r rune) {
	w.b.WriteRune(r)
	w.started = true
}

func (w *word) flush(out []string) []string {
	if !w.started {
		return out
	}
	out = append(out, w.b.String())
	w.b.Reset()
	w.started = false
	return out
}

// Tokenize splits line into words using POSIX shell quoting: single quotes
// are literal, double quotes allow \ to escape \ " $ ` and newline, and a
// backslash outside quotes escapes the next character. Blank input yields an
// empty slice.
func Tokenize(line string) ([]string, error) {
	out := []string{}
	var cur word
	state := stateOutside
	escaping := false
	quoteStart := 0

	for i, r := range line {
		switch state {
		case stateOutside:
			switch {
			case escaping:
				escaping = false
				if r == '\n' {
					continue
				}
				cur.add(r)
			case r == '\\':
				escaping = true
			case r == '\'':
				state, quoteStart, cur.started = stateSingleQuote, i, true
			case r == '"':
				state, quoteStart, cur.started = stateDoubleQuote, i, true
			case unicode.IsSpace(r):
				out = cur.flush(out)
			default:
				cur.add(r)
			}

		case stateSingleQuote:
			if r == '\'' {
				state = stateOutside
				continue
			}
			cur.add(r)

		case stateDoubleQuote:
			switch {
			case escaping:
				escaping = false
				switch r {
				case '\\', '"', '$', '`':
					cur.add(r)
				case '\n':
				default:
					cur.add('\\')
					cur.add(r)
				}
			case r == '\\':
				escaping = true
			case r == '"':
				state = stateOutside
			default:
				cur.add(r)
			}
		}
	}

	if state != stateOutside {
		return nil, &ParseError{Line: line, Pos: quoteStart, Err: ErrUnclosedQuote}
	}
	if escaping {
		return nil, &ParseError{Line: line, Pos: len(line) - 1, Err: ErrTrailingEscape}
	}
	return cur.flush(out), nil
}

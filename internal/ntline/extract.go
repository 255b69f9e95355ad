// Package ntline splits single N-Triples style lines into their three tokens.
//
// A line has the fixed shape:
//
//	<subject> <predicate> <object> .
//
// Two grammars are supported. ModeStrict requires every token to be an
// angle-bracket delimited IRI and the line to end in exactly " .".
// ModePermissive only splits on the first three spaces and accepts any token
// shape, which is what pre-sanitized dumps need.
package ntline

import (
	"fmt"
	"strings"
)

const (
	// Separator is the only delimiter between tokens
	Separator = ' '

	// Terminator must make up the whole remainder of a strict line
	Terminator = "."
)

// Mode selects the extraction grammar
type Mode int

const (
	ModeStrict Mode = iota
	ModePermissive
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModePermissive:
		return "permissive"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration value into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return ModeStrict, nil
	case "permissive":
		return ModePermissive, nil
	default:
		return ModeStrict, fmt.Errorf("unknown extraction mode: %s", s)
	}
}

// Triple holds the three raw tokens of a line, brackets included
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// Extract splits line according to mode. The line must not carry its
// line ending.
func Extract(line string, mode Mode) (Triple, error) {
	x := extractor{line: line}
	if mode == ModePermissive {
		return x.permissive()
	}
	return x.strict()
}

// IsIgnorable reports blank lines and '#' comment lines
func IsIgnorable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || trimmed[0] == '#'
}

// extractor walks a line left to right, one separator at a time
type extractor struct {
	line string
	pos  int
}

// next returns the text up to the next separator and moves past it
func (x *extractor) next() (string, bool) {
	idx := strings.IndexByte(x.line[x.pos:], Separator)
	if idx < 0 {
		return "", false
	}
	token := x.line[x.pos : x.pos+idx]
	x.pos += idx + 1
	return token, true
}

// rest returns everything after the last consumed separator
func (x *extractor) rest() string {
	return x.line[x.pos:]
}

func (x *extractor) strict() (Triple, error) {
	var tokens [3]string
	for i := range tokens {
		position := Position(i)
		token, ok := x.next()
		if !ok {
			return Triple{}, &SyntaxError{Kind: ErrMissingSeparator, Position: position + 1, Text: x.rest()}
		}
		if !isBracketed(token) {
			return Triple{}, &SyntaxError{Kind: ErrMalformedToken, Position: position, Text: token}
		}
		tokens[i] = token
	}

	if suffix := x.rest(); suffix != Terminator {
		return Triple{}, &SyntaxError{Kind: ErrUnexpectedLineSuffix, Position: PositionTerminator, Text: suffix}
	}

	return Triple{Subject: tokens[0], Predicate: tokens[1], Object: tokens[2]}, nil
}

func (x *extractor) permissive() (Triple, error) {
	subject, ok := x.next()
	if !ok {
		return Triple{}, &SyntaxError{Kind: ErrMissingSeparator, Position: PositionPredicate, Text: x.rest()}
	}
	predicate, ok := x.next()
	if !ok {
		return Triple{}, &SyntaxError{Kind: ErrMissingSeparator, Position: PositionObject, Text: x.rest()}
	}
	// The object runs to the third separator, or to the end of the line
	// when there is none.
	object, ok := x.next()
	if !ok {
		object = x.rest()
	}

	return Triple{Subject: subject, Predicate: predicate, Object: object}, nil
}

func isBracketed(token string) bool {
	return len(token) >= 2 && token[0] == '<' && token[len(token)-1] == '>'
}

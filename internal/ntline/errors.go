package ntline

import (
	"errors"
	"fmt"
)

var (
	ErrMissingSeparator     = errors.New("missing separator")
	ErrMalformedToken       = errors.New("malformed token")
	ErrUnexpectedLineSuffix = errors.New("unexpected line suffix")
)

// Position identifies the triple slot a syntax error was raised for
type Position int

const (
	PositionSubject Position = iota
	PositionPredicate
	PositionObject
	PositionTerminator
)

func (p Position) String() string {
	switch p {
	case PositionSubject:
		return "subject"
	case PositionPredicate:
		return "predicate"
	case PositionObject:
		return "object"
	case PositionTerminator:
		return "terminator"
	default:
		return "unknown"
	}
}

// SyntaxError describes why a single line could not be split into a triple.
// Kind is one of the Err* sentinels; errors.Is matches against it.
type SyntaxError struct {
	Kind     error
	Position Position
	Text     string
}

func (e *SyntaxError) Error() string {
	switch e.Kind {
	case ErrMalformedToken:
		return fmt.Sprintf("malformed %s token %q: expected '<' ... '>'", e.Position, e.Text)
	case ErrUnexpectedLineSuffix:
		return fmt.Sprintf("unexpected line suffix %q: expected %q", e.Text, Terminator)
	case ErrMissingSeparator:
		return fmt.Sprintf("missing separator before %s", e.Position)
	default:
		return fmt.Sprintf("%v at %s", e.Kind, e.Position)
	}
}

func (e *SyntaxError) Unwrap() error {
	return e.Kind
}

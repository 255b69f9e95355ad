package pipeline

import (
	"errors"
	"fmt"
)

// ErrIO marks read and write failures on the corpus streams. They are never
// recovered from.
var ErrIO = errors.New("i/o failure")

// IOError reports a failed read or write. Line is the last line that was
// fully processed before the failure.
type IOError struct {
	Op   string
	Line uint64
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s failed after line %d: %v", e.Op, e.Line, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIO) match any IOError
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// LineError is a parse failure tied to a line of input
type LineError struct {
	Line uint64
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

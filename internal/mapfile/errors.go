package mapfile

import (
	"errors"
	"fmt"
)

var (
	ErrMissingTable = errors.New("missing table")
	ErrUnknownTable = errors.New("unknown table")
	ErrBadEntry     = errors.New("bad entry")
	ErrDuplicate    = errors.New("duplicate")
	ErrSyntax       = errors.New("syntax error")
	ErrSchema       = errors.New("schema validation failed")

	errNotInteger = errors.New("not an integer")
	errOutOfRange = errors.New("out of range")
)

// Error is a configuration error in a mapping file. Line is 0 when the
// problem concerns the file as a whole.
type Error struct {
	Path string
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

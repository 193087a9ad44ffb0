package pattern

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedPattern = errors.New("malformed meeting pattern")
	ErrUnknownWeekday   = errors.New("unknown weekday")
	ErrInvalidTime      = errors.New("invalid time")
	ErrInvalidDate      = errors.New("invalid date")
)

// Error reports a meeting-pattern line that could not be decoded.
//
// Kind is one of the package sentinels. Every Error also matches
// ErrMalformedPattern, so callers can test for "bad line" without caring
// which field was wrong.
type Error struct {
	Kind  error
	Line  string // raw line as it appeared in the field
	Value string // offending token, if narrower than the line
	Err   error  // underlying parse error, if any
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Value != "" {
		msg += fmt.Sprintf(" %q", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + fmt.Sprintf(" (in %q)", e.Line)
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func (e *Error) Is(target error) bool {
	return target == ErrMalformedPattern
}

func newError(kind error, line, value string, err error) *Error {
	return &Error{Kind: kind, Line: line, Value: value, Err: err}
}

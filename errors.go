package docrep

import (
	"errors"
	"fmt"
)

// Error is returned for malformed streams and schema conflicts.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func wrapf(err error, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Err: err}
}

var (
	// ErrNoRuntime is returned when a dynamic view is requested of a
	// document that was not read from a stream.
	ErrNoRuntime = errors.New("docrep: document has no runtime schema")
	// ErrDocReused is returned when reading into a document that already
	// holds a runtime schema.
	ErrDocReused = errors.New("docrep: document already holds a runtime schema")
	// ErrSchemaMismatch is returned when a document's Go type is not the
	// type its schema was built from.
	ErrSchemaMismatch = errors.New("docrep: document type does not match schema")
)

package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrEmbedding     = errors.New("embedding error")
	ErrIndexService  = errors.New("index service error")
	ErrDataShape     = errors.New("data shape error")
)

// Capability errors reported by a VectorIndex.
var (
	ErrFilterUnsupported = errors.New("payload filter not supported")
	ErrScrollUnsupported = errors.New("scroll not supported")
)

// Error attaches a kind and the failing operation to an underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an *Error of the given kind with a formatted cause.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap builds an *Error of the given kind around err. A nil err yields nil.
// An err that already carries kind is returned unchanged.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) && de.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

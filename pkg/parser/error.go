package parser

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrMalformedBlock means an opener was not followed by a body and then its matching closer.
	ErrMalformedBlock = errors.Base("malformed block")
	// ErrUnexpectedClose means a closer showed up with no block open.
	ErrUnexpectedClose = errors.Base("unexpected close")
)

// Error is a structural error in a template. Kind is one of the Err* values above,
// so errors.Is works against it.
type Error struct {
	Kind    error
	Message string
	// Offset is the byte offset of the offending token, or of the opener when the
	// source ended inside a block.
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func malformed(offset int, msg string) *Error {
	return &Error{Kind: ErrMalformedBlock, Message: msg, Offset: offset}
}

func unexpectedClose(offset int, msg string) *Error {
	return &Error{Kind: ErrUnexpectedClose, Message: msg, Offset: offset}
}

// AsError extracts the structural error from err, if it holds one.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

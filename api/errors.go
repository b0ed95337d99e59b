// Package api
// Author: momentics <momentics@gmail.com>
//
// Status codes, sentinel errors and the structured error type shared by the
// overlay packages.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrNoFreeBuffer      = errors.New("no free buffer")
	ErrInvalidIndex      = errors.New("invalid buffer index")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInconsistentState = errors.New("free count and slot state disagree")
	ErrNotInitialized    = errors.New("overlay not initialized")
	ErrSegmentCreate     = errors.New("shared segment creation failed")
	ErrNotSupported      = errors.New("operation not supported")
	ErrPoolClosed        = errors.New("buffer pool is closed")
)

// Status is the closed set of result codes returned by overlay operations.
type Status int

const (
	StatusOK Status = iota
	StatusNotInitialized
	StatusNoFreeBuffer
	StatusInvalidIndex
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotInitialized:
		return "not-initialized"
	case StatusNoFreeBuffer:
		return "no-free-buffer"
	case StatusInvalidIndex:
		return "invalid-index"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Error represents a structured error with code and context.
type Error struct {
	Code    Status
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the wrapped sentinel for errors.Is.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a new structured error wrapping err.
func NewError(code Status, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Err:     err,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// StatusOf maps an error returned by any overlay operation to its Status.
// A nil error is StatusOK; unknown errors are StatusFailure.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	switch {
	case errors.Is(err, ErrNoFreeBuffer):
		return StatusNoFreeBuffer
	case errors.Is(err, ErrInvalidIndex), errors.Is(err, ErrInvalidArgument):
		return StatusInvalidIndex
	case errors.Is(err, ErrNotInitialized), errors.Is(err, ErrPoolClosed):
		return StatusNotInitialized
	}
	return StatusFailure
}

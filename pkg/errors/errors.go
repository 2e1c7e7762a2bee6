// Package errors gives the CLI and the HTTP server one vocabulary for
// failures. Every [Error] carries a [Code]; the code decides the HTTP status
// a handler answers with and the exit status the CLI ends with.
//
//	err := errors.New(errors.ErrCodeInvalidTrace, "trace %s has no root span", name)
//	if errors.Is(err, errors.ErrCodeInvalidTrace) { ... }
//
//	err = errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error class. It is sent to HTTP clients as-is.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidTrace  Code = "INVALID_TRACE"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeViewNotFound Code = "VIEW_NOT_FOUND"
	ErrCodeSpanNotFound Code = "SPAN_NOT_FOUND"

	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeReadOnly    Code = "READ_ONLY"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Exit statuses used by the CLI.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitNotFound    = 3
	ExitInterrupted = 130
)

var outcomes = map[Code]struct{ status, exit int }{
	ErrCodeInvalidInput:  {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidFormat: {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidTrace:  {http.StatusBadRequest, ExitFailure},
	ErrCodeInvalidPath:   {http.StatusBadRequest, ExitUsage},
	ErrCodeInvalidConfig: {http.StatusBadRequest, ExitUsage},
	ErrCodeNotFound:      {http.StatusNotFound, ExitNotFound},
	ErrCodeFileNotFound:  {http.StatusNotFound, ExitNotFound},
	ErrCodeViewNotFound:  {http.StatusNotFound, ExitNotFound},
	ErrCodeSpanNotFound:  {http.StatusNotFound, ExitNotFound},
	ErrCodeRateLimited:   {http.StatusTooManyRequests, ExitFailure},
	ErrCodeReadOnly:      {http.StatusForbidden, ExitFailure},
	ErrCodeUnsupported:   {http.StatusNotImplemented, ExitFailure},
}

// HTTPStatus is the response status for c. Unknown codes map to 500.
func (c Code) HTTPStatus() int {
	if o, ok := outcomes[c]; ok {
		return o.status
	}
	return http.StatusInternalServerError
}

// Error is a failure with a [Code] and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause that stays reachable through errors.Is and As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether the outermost [Error] in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost [Error] in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage is err's message without the code prefix and cause.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps err to a response status. Uncoded errors map to 500.
func HTTPStatus(err error) int {
	return GetCode(err).HTTPStatus()
}

// ExitCode maps err to a process exit status. Cancellation, which is how
// the CLI sees Ctrl-C, exits with 130 like a shell does.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	}
	if o, ok := outcomes[GetCode(err)]; ok {
		return o.exit
	}
	return ExitFailure
}

// Package ctxerr defines the closed set of tagged error kinds the core
// returns (never throws) from fallible operations. The CLI layer is the
// sole translator from an Error's Code to a process exit status.
package ctxerr

import (
	"errors"
	"fmt"
)

// Code is a stable error-kind identifier.
type Code string

const (
	NotInitialized    Code = "not_initialized"
	AlreadyInitialized Code = "already_initialized"
	SourceNotFound    Code = "source_not_found"
	PathNotFound      Code = "path_not_found"
	SourceExists      Code = "source_exists"
	InvalidUsage      Code = "invalid_usage"
	NoSources         Code = "no_sources"
	IndexEmpty        Code = "index_empty"
	EmbeddingError    Code = "embedding_error"
	DatabaseError     Code = "database_error"
	QueryError        Code = "query_error"
)

// Error is the tagged variant every fallible core operation returns.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	Wrapped    error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Wrapped: cause}
}

// WithSuggestion attaches a remediation hint (e.g. for PathNotFound).
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == code
}

// ExitCode maps an error kind to the CLI exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	ce, ok := err.(*Error)
	if !ok {
		return 1
	}
	switch ce.Code {
	case NotInitialized:
		return 3
	case InvalidUsage, SourceNotFound, PathNotFound, SourceExists:
		return 2
	case IndexEmpty:
		return 4
	default:
		return 1
	}
}

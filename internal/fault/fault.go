// Package fault defines the typed errors shared by the execution engine,
// volume controller, and adapter framework. Every public operation either
// returns a well-formed result or an *Error carrying a machine-readable code
// and a human-actionable suggestion.
package fault

import (
	"errors"
	"fmt"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	CodeInitFailed        Code = "init_failed"
	CodeExecFailed        Code = "exec_failed"
	CodeEngineBusy        Code = "engine_busy"
	CodeEngineClosed      Code = "engine_closed"
	CodeParseFailed       Code = "parse_failed"
	CodeAdapterNotFound   Code = "adapter_not_found"
	CodeMountFailed       Code = "mount_failed"
	CodeMountInaccessible Code = "mount_inaccessible"
)

// Error is a typed error with a code and a suggestion for the caller.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	Err        error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so callers can compare against sentinel values.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping a cause.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithSuggestion attaches a suggestion and returns the same error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// CodeOf extracts the Code from an error chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Preview truncates input for inclusion in parse error messages. Raw payloads
// can be large and are never useful in full.
func Preview(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

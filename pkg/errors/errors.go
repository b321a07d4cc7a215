// Package errors provides structured error types for baselineplan.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the extraction engine
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Extraction errors describe what went wrong with a single dataset node or
// with a whole run:
//   - MALFORMED_NODE: a node is not a structured mapping (never escalated)
//   - MISSING_SUPPORT_DATA: compat info without a support map (node skipped)
//   - CLASSIFICATION_FAILURE: metric computation failed (node skipped)
//   - EMPTY_RESULT: a non-empty dataset produced no records (run fails)
//
// The remaining codes follow the usual INVALID_* / NOT_FOUND / INTERNAL_*
// convention for input, lookup and unexpected failures.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingSupportData, "no support map for %s", path)
//	if errors.Is(err, errors.ErrCodeMissingSupportData) {
//	    // skip the node
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", file)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Extraction errors
	ErrCodeMalformedNode         Code = "MALFORMED_NODE"
	ErrCodeMissingSupportData    Code = "MISSING_SUPPORT_DATA"
	ErrCodeClassificationFailure Code = "CLASSIFICATION_FAILURE"
	ErrCodeEmptyResult           Code = "EMPTY_RESULT"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNodeLevel reports whether err describes a failure confined to a single
// dataset node. Node-level failures are logged and skipped by the traversal.
func IsNodeLevel(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedNode, ErrCodeMissingSupportData, ErrCodeClassificationFailure:
		return true
	}
	return false
}

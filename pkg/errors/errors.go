// Package errors provides structured error types for MetroFlow.
//
// Errors carry a machine-readable [Code] next to a human-readable message so
// the CLI can print friendly output and the HTTP API can choose a status code
// without string matching.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: input or snapshot validation failures
//   - *_NOT_FOUND: missing maps, stations, segments, tracks or sessions
//   - STORE_ERROR: snapshot store backend failures
//   - INTERNAL_ERROR, UNSUPPORTED: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStationNotFound, "station %s", id)
//	if errors.Is(err, errors.ErrCodeStationNotFound) {
//	    // Handle missing station
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidSnapshot, jsonErr, "decode map")
//
// Recoverable editing mistakes (connecting a station to itself, looking up a
// stale id) are not errors at all: the engine returns nil and the caller
// ignores the click. Only malformed snapshots and outer-surface failures are
// reported through this package.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidSnapshot Code = "INVALID_SNAPSHOT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle    Code = "INVALID_STYLE"
	ErrCodeInvalidTopology Code = "INVALID_TOPOLOGY"

	// Resource not found errors
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeStationNotFound    Code = "STATION_NOT_FOUND"
	ErrCodeSegmentNotFound    Code = "SEGMENT_NOT_FOUND"
	ErrCodeTrackNotFound      Code = "TRACK_NOT_FOUND"
	ErrCodeConnectionNotFound Code = "CONNECTION_NOT_FOUND"
	ErrCodeSessionNotFound    Code = "SESSION_NOT_FOUND"

	// Backend errors
	ErrCodeStore Code = "STORE_ERROR"

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
// It unwraps the error chain looking for the outermost *Error.
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

// IsNotFound reports whether err carries NOT_FOUND or one of the
// entity-specific *_NOT_FOUND codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeStationNotFound, ErrCodeSegmentNotFound,
		ErrCodeTrackNotFound, ErrCodeConnectionNotFound, ErrCodeSessionNotFound:
		return true
	}
	return false
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

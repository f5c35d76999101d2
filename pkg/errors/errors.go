// Package errors provides structured error types for cfgdot.
//
// Errors carry a machine-readable [Code] so the CLI, the preview server and
// the interactive session can react to a failure class without matching on
// message text.
//
// # Error Codes
//
//   - INVALID_*: bad flags, config values or function exports
//   - *_NOT_FOUND / *_UNAVAILABLE: missing files or views
//   - RENDER_FAILED, CLIPBOARD_FAILED: external tool failures
//   - NOT_READY: an export was requested before the first render completed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "dpi %d out of range", dpi)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // ...
//	}
//
//	err := errors.Wrap(errors.ErrCodeRenderFailed, origErr, "run %s", exe)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidExport Code = "INVALID_EXPORT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidView   Code = "INVALID_VIEW"

	// Missing resources
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeViewUnavailable Code = "VIEW_UNAVAILABLE"

	// External tools
	ErrCodeRenderFailed    Code = "RENDER_FAILED"
	ErrCodeClipboardFailed Code = "CLIPBOARD_FAILED"

	// Session state
	ErrCodeNotReady Code = "NOT_READY"

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

// coder is implemented by error types that are not *Error but still belong
// to a code class, such as [ExitError].
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code anywhere in its chain.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// An *Error in the chain takes precedence over a coder. Returns the empty
// string for plain errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
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

// ExitError describes a rasterizer process that exited non-zero.
// The session only logs it; the image, if any, is still used.
type ExitError struct {
	Exe      string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Exe, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Code returns the error code for this error type.
func (e *ExitError) Code() Code {
	return ErrCodeRenderFailed
}

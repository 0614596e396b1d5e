// Package errors provides the typed error taxonomy of the FAQ service.
//
// The answering pipeline distinguishes three caller-visible failure kinds:
//
//   - ErrInvalidInput: the question is empty or not text; never retried.
//   - ErrModelExhausted: every configured completion candidate failed.
//   - ErrUpstream: a hard-required collaborator could not be read and no
//     graceful-degradation path applies.
//
// Optional enrichments (event override, FAQ match, cache) never surface
// errors through this package; they are logged and swallowed at their
// component boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Errno is a structured error carrying a stable code and an HTTP mapping for
// the transport boundary.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// HTTP is the HTTP status code to return.
	HTTP int `json:"-"`

	// Message is the user-facing message.
	Message string `json:"message"`

	// cause is the underlying error.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is matches any Errno with the same code, so wrapped copies created by
// WithCause or WithMessage still satisfy errors.Is against the sentinel.
func (e *Errno) Is(target error) bool {
	var t *Errno
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithCause returns a copy of e carrying cause as the underlying error.
func (e *Errno) WithCause(cause error) *Errno {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of e with a custom message.
func (e *Errno) WithMessage(format string, args ...any) *Errno {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// Predefined error kinds of the answering pipeline.
var (
	// ErrInvalidInput indicates an empty or non-text question.
	ErrInvalidInput = &Errno{
		Code:    1001,
		HTTP:    http.StatusBadRequest,
		Message: "question must be non-empty text",
	}

	// ErrModelExhausted indicates every completion candidate failed.
	ErrModelExhausted = &Errno{
		Code:    1002,
		HTTP:    http.StatusBadGateway,
		Message: "all completion models failed",
	}

	// ErrUpstream indicates a required collaborator is unreachable.
	ErrUpstream = &Errno{
		Code:    1003,
		HTTP:    http.StatusServiceUnavailable,
		Message: "upstream collaborator unavailable",
	}
)

// ModelExhaustedError reports that every completion candidate failed,
// naming each model in attempt order. It satisfies
// errors.Is(err, ErrModelExhausted).
type ModelExhaustedError struct {
	// Models lists every model attempted, in order.
	Models []string

	// LastErr is the failure of the final attempt.
	LastErr error
}

// Error implements the error interface.
func (e *ModelExhaustedError) Error() string {
	msg := fmt.Sprintf("all completion models failed: [%s]", strings.Join(e.Models, ", "))
	if e.LastErr != nil {
		msg += fmt.Sprintf(": last error: %v", e.LastErr)
	}
	return msg
}

// Unwrap returns the final attempt's error.
func (e *ModelExhaustedError) Unwrap() error {
	return e.LastErr
}

// Is reports whether target is the ErrModelExhausted kind.
func (e *ModelExhaustedError) Is(target error) bool {
	var t *Errno
	if errors.As(target, &t) {
		return t.Code == ErrModelExhausted.Code
	}
	return false
}

// HTTPStatus maps an error to its transport status code; unknown errors map
// to 500. ModelExhaustedError maps like ErrModelExhausted.
func HTTPStatus(err error) int {
	var me *ModelExhaustedError
	if errors.As(err, &me) {
		return ErrModelExhausted.HTTP
	}
	var e *Errno
	if errors.As(err, &e) {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// Re-exported standard helpers so callers need a single errors import.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }

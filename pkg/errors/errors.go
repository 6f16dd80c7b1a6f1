// Package errors defines the coded errors shared by the planner, the HTTP
// API and the CLI.
//
// Every *Error carries a [Code]. The placement engine only produces three
// of them, and none is fatal: the event is dropped, the garden stays as it
// was, and the user may be shown a notice.
//
//	OVERLAP            a placement or move would overlap another plant
//	VALIDATION         a palette template is missing a required field
//	MISSING_SELECTION  a click arrived with nothing armed or being edited
//
// The remaining codes belong to identity, storage and transport.
//
//	err := errors.New(errors.ErrCodeValidation, "missing %s", "spread")
//	if errors.GetCode(err).Recoverable() {
//	    // report and keep going
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeOverlap          Code = "OVERLAP"
	ErrCodeValidation       Code = "VALIDATION"
	ErrCodeMissingSelection Code = "MISSING_SELECTION"

	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidEmail Code = "INVALID_EMAIL"
	ErrCodeWeakPassword Code = "WEAK_PASSWORD"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeUserNotFound Code = "USER_NOT_FOUND"
	ErrCodeConflict     Code = "CONFLICT"

	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeWrongPassword  Code = "WRONG_PASSWORD"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Recoverable reports whether c is a placement rejection: the garden is
// unchanged and the session carries on.
func (c Code) Recoverable() bool {
	switch c {
	case ErrCodeOverlap, ErrCodeValidation, ErrCodeMissingSelection:
		return true
	}
	return false
}

// Silent reports whether errors with code c are dropped without telling
// the user.
func (c Code) Silent() bool { return c == ErrCodeMissingSelection }

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string // shown to users as is
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an *Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// Silent reports whether err should be dropped without a message.
func Silent(err error) bool { return GetCode(err).Silent() }

// UserMessage returns the message of the outermost *Error without its code
// prefix, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// OverlapError lists the plants a rejected placement or move would
// overlap.
type OverlapError struct {
	Conflicts []string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps %d plant(s)", len(e.Conflicts))
}

// Code returns ErrCodeOverlap.
func (e *OverlapError) Code() Code { return ErrCodeOverlap }

// Overlap returns an OVERLAP *Error whose cause is an *OverlapError.
func Overlap(conflicts []string) *Error {
	return Wrap(ErrCodeOverlap, &OverlapError{Conflicts: conflicts}, "Overlap!")
}

// Conflicts returns the plant ids carried by an overlap error.
func Conflicts(err error) []string {
	var oe *OverlapError
	if errors.As(err, &oe) {
		return oe.Conflicts
	}
	return nil
}

package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes resolution errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the operation is not resolvable by any step.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidSetting indicates a mode or synonym token outside its accepted set.
	ErrCodeInvalidSetting ErrorCode = "INVALID_SETTING"

	// ErrCodeLibraryLoad indicates a macro library member could not define the macro.
	ErrCodeLibraryLoad ErrorCode = "LIBRARY_LOAD_FAILED"

	// ErrCodeConsistency indicates an internal or database fault. It is fatal to the run.
	ErrCodeConsistency ErrorCode = "DATABASE_CONSISTENCY"
)

// Error is the error type returned by every resolution layer.
//
// NotFound, InvalidSetting and LibraryLoad errors are attributed to the
// source line that triggered them and assembly continues. Consistency
// errors abort the run.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Name is the operation, alias, mode or macro involved.
	Name string

	// Message is a human-readable description.
	Message string

	// At is the source line the error is attributed to, when known.
	At *Location

	// Member is the library member line at fault, for library load failures.
	Member *Location

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.At != nil {
		msg = fmt.Sprintf("%s (at %s)", msg, e.At)
	}
	if e.Member != nil {
		msg = fmt.Sprintf("%s (member line %s)", msg, e.Member)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error must abort the run.
func (e *Error) Fatal() bool {
	return e.Code == ErrCodeConsistency
}

// NewNotFound creates a NotFound error for name.
func NewNotFound(name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Name:    name,
		Message: fmt.Sprintf("operation not found: %s", name),
	}
}

// NewInvalidSetting creates an InvalidSetting error.
func NewInvalidSetting(name, setting string) *Error {
	return &Error{
		Code:    ErrCodeInvalidSetting,
		Name:    name,
		Message: fmt.Sprintf("%s setting invalid: %s", name, setting),
	}
}

// NewLibraryLoad creates a LibraryLoad error for macro name. member is the
// library member line at fault, if any.
func NewLibraryLoad(name string, member *Location, cause error) *Error {
	return &Error{
		Code:    ErrCodeLibraryLoad,
		Name:    name,
		Message: fmt.Sprintf("macro library load failed: %s", name),
		Member:  member,
		Cause:   cause,
	}
}

// NewConsistency creates a Consistency error.
func NewConsistency(name, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeConsistency,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotFound returns true if err is a NotFound error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsInvalidSetting returns true if err is an InvalidSetting error.
func IsInvalidSetting(err error) bool {
	return hasCode(err, ErrCodeInvalidSetting)
}

// IsLibraryLoad returns true if err is a LibraryLoad error.
func IsLibraryLoad(err error) bool {
	return hasCode(err, ErrCodeLibraryLoad)
}

// IsFatal returns true if err must abort the run.
func IsFatal(err error) bool {
	return hasCode(err, ErrCodeConsistency)
}

// WithLocation returns err attributed to at when err is an *Error without a
// location. Other errors are returned unchanged.
func WithLocation(err error, at Location) error {
	var e *Error
	if !errors.As(err, &e) || e.At != nil {
		return err
	}
	cp := *e
	cp.At = &at
	return &cp
}

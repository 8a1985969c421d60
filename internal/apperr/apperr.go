// Package apperr defines the error kinds shared by services and handlers.
//
// Services return *Error values (or wrap them); handlers classify them with
// errors.Is against the Err* kinds.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// FieldError describes a problem with a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified, client-presentable error.
type Error struct {
	Kind    error
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports that the entity is absent or soft-deleted.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied reports that the caller may not act on the entity.
func AccessDenied(format string, args ...any) error {
	return &Error{Kind: ErrAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// Validation reports malformed input.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields reports malformed input with per-field details.
func ValidationFields(message string, fields ...FieldError) error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// Conflict reports that the request clashes with existing state.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a data store or dependency failure.
func Upstream(message string, err error) error {
	return &Error{Kind: ErrUpstream, Message: message, Err: err}
}

// Message returns the client-presentable message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// Fields returns the per-field details attached to err, if any.
func Fields(err error) []FieldError {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}

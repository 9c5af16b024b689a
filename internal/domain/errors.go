package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Every failure surfaced by the pipeline matches exactly one of
// the first six through errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamError       = errors.New("upstream error")
	ErrProtocolViolation   = errors.New("upstream protocol violation")
	ErrConstraintViolation = errors.New("storage constraint violation")
	ErrTransientStorage    = errors.New("transient storage error")
)

var (
	ErrNoItemsToMatch           = fmt.Errorf("%w: no items to match", ErrInvalidInput)
	ErrValidation               = fmt.Errorf("%w: validation failed", ErrInvalidInput)
	ErrUnsupportedFileType      = fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	ErrFileTooLarge             = fmt.Errorf("%w: file exceeds maximum allowed size", ErrInvalidInput)
	ErrUnsupportedExportFormat  = fmt.Errorf("%w: unsupported export format", ErrInvalidInput)
	ErrDocumentAlreadyProcessed = fmt.Errorf("%w: document already processed", ErrConstraintViolation)
	ErrNotFound                 = errors.New("resource not found")
	ErrDocumentNotFound         = fmt.Errorf("document %w", ErrNotFound)
	ErrUploadFailed             = errors.New("file upload to storage failed")
)

// Error carries a failure kind together with the operation that failed and
// any detail reported by a remote collaborator. errors.Is matches both the
// kind and the wrapped cause.
type Error struct {
	Kind       error
	Op         string
	Detail     string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

// NewError builds an Error of the given kind.
func NewError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ValidationError names the field of a record that could not be coerced.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrInvalidInput
}

// DetailOf returns the remote detail attached to err, if any.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// RetryAfterOf returns the retry hint attached to err, if any.
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a lookup against an entity id or tool name that does
// not exist. The message always contains "not found" so callers matching on
// text and callers using errors.As agree.
type NotFoundError struct {
	Kind string // "Tool", "Provider", "Agent"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

// NewNotFound creates a NotFoundError for the given entity kind and id.
func NewNotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ValidationIssue is a single structured validation failure.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (i ValidationIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// ValidationError aggregates one or more validation issues.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidation creates a ValidationError with a single issue.
func NewValidation(path, message, code string) *ValidationError {
	return &ValidationError{Issues: []ValidationIssue{{Path: path, Message: message, Code: code}}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConflictError reports a state-conflict invariant violation, such as binding
// an agent to an inactive provider.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflict creates a ConflictError from a formatted message.
func NewConflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// RegistrationError reports an invalid tool registration attempt.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// NewRegistration creates a RegistrationError from a formatted message.
func NewRegistration(format string, args ...any) *RegistrationError {
	return &RegistrationError{Message: fmt.Sprintf(format, args...)}
}

// IsRegistration reports whether err is (or wraps) a RegistrationError.
func IsRegistration(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}

// TimeoutError reports a per-attempt execution timeout. The message mentions
// the timeout duration so it survives flattening into a plain string.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	return e.Message
}

// NewTimeout creates a TimeoutError from a formatted message.
func NewTimeout(format string, args ...any) *TimeoutError {
	return &TimeoutError{Message: fmt.Sprintf(format, args...)}
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// CancelledError marks work abandoned by cooperative cancellation.
type CancelledError struct {
	Message string
}

func (e *CancelledError) Error() string {
	return e.Message
}

// NewCancelled creates a CancelledError with the standard message when format is empty.
func NewCancelled(format string, args ...any) *CancelledError {
	if format == "" {
		return &CancelledError{Message: "Tool execution was cancelled"}
	}
	return &CancelledError{Message: fmt.Sprintf(format, args...)}
}

// IsCancelled reports whether err is (or wraps) a CancelledError.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

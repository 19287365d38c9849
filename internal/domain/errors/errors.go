// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows the HTTP edge to classify
// failures without looking at message text.
//
// Pattern: Sentinel Errors + Kind-tagged Error
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the closed set of failure categories business code can raise.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidInput
	KindNotFound
	KindAlreadyExists
	KindConflict
	KindForbidden
	KindUnauthorized
	KindDatabase
	KindConstraint
	KindExternal
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:       "unknown",
	KindValidation:    "validation",
	KindInvalidInput:  "invalid_input",
	KindNotFound:      "not_found",
	KindAlreadyExists: "already_exists",
	KindConflict:      "conflict",
	KindForbidden:     "forbidden",
	KindUnauthorized:  "unauthorized",
	KindDatabase:      "database",
	KindConstraint:    "constraint",
	KindExternal:      "external",
	KindUnavailable:   "unavailable",
}

// String returns the kind name used in logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Common sentinel errors
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidState  = errors.New("invalid state transition")
)

// Error wraps a failure with its kind and optional context.
//
// Message is safe to show to API callers. Err is the underlying cause and
// is only logged.
type Error struct {
	Kind    Kind
	Op      string // Operation that failed (e.g., "partner.approve")
	Field   string // Input field, for validation failures
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation creates a validation failure for one input field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// InvalidInput creates an error for malformed input that is not tied to a field.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// NotFound creates a not-found error. An empty id yields "<resource> not found".
func NotFound(resource, id string) *Error {
	message := resource + " not found"
	if id != "" {
		message = fmt.Sprintf("%s with ID '%s' not found", resource, id)
	}
	return &Error{Kind: KindNotFound, Message: message, Err: ErrNotFound}
}

// AlreadyExists creates a duplicate-entity error.
func AlreadyExists(message string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: message, Err: ErrAlreadyExists}
}

// Conflict creates a state conflict error (e.g., an illegal status transition).
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: ErrInvalidState}
}

// Forbidden creates a permission error for the given action.
func Forbidden(action string) *Error {
	return &Error{Kind: KindForbidden, Message: "Insufficient permissions to " + action}
}

// Unauthorized creates an authentication error.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Database wraps a storage failure. The cause is kept for logs only.
func Database(op string, err error) *Error {
	return &Error{Kind: KindDatabase, Op: op, Message: "Database " + op + " failed", Err: err}
}

// Constraint wraps a storage constraint violation.
func Constraint(message string, err error) *Error {
	return &Error{Kind: KindConstraint, Message: message, Err: err}
}

// External wraps a failure of a downstream service.
func External(service string, err error) *Error {
	return &Error{Kind: KindExternal, Message: service + " is unavailable", Err: err}
}

// Unavailable signals that the service cannot take the request right now.
func Unavailable(message string) *Error {
	return &Error{Kind: KindUnavailable, Message: message}
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	if de, ok := As(err); ok {
		return de.Kind
	}
	return KindUnknown
}

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || KindOf(err) == KindNotFound
}

// Sniff classifies an untyped error by its message text.
//
// Best effort only, for third-party errors that never went through the
// constructors above: "database"/"SQL" mean KindDatabase, "validation"/"invalid"
// mean KindValidation, anything else is KindUnknown. Matching is case-sensitive,
// so "Invalid" or "sql" fall through to KindUnknown.
func Sniff(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "database"), strings.Contains(msg, "SQL"):
		return KindDatabase
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return KindValidation
	}
	return KindUnknown
}

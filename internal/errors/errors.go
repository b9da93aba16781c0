// Package errors provides kind-tagged error handling for the sammoo
// optimization framework.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies an error according to the framework's failure taxonomy.
type Kind int

const (
	// KindConfiguration marks invalid bounds, types, or unknown config
	// presets. Fatal, raised at setup time.
	KindConfiguration Kind = iota
	// KindEvaluation marks a failed oracle evaluation. Non-fatal: the
	// adapter converts it to a NaN-filled vector.
	KindEvaluation
	// KindOutputNotFound marks a failed objective extraction. Non-fatal,
	// contributes an undefined value for that objective.
	KindOutputNotFound
	// KindUnmappedVariable marks a design variable with no known routing.
	// Non-fatal, the variable is skipped.
	KindUnmappedVariable
	// KindModeViolation marks a sequential-step call while in batch mode.
	// Non-fatal no-op.
	KindModeViolation
	// KindIO marks an export or file failure. Fatal to the call only.
	KindIO
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEvaluation:
		return "evaluation"
	case KindOutputNotFound:
		return "output_not_found"
	case KindUnmappedVariable:
		return "unmapped_variable"
	case KindModeViolation:
		return "mode_violation"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error represents an error with a kind, operation and component context.
type Error struct {
	// Kind classifies the error within the failure taxonomy.
	Kind Kind
	// Message is a human-readable description of the error.
	Message string
	// Op is the operation that was being performed.
	Op string
	// Component is the package or subsystem where the error occurred.
	Component string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Kind.String())

	if e.Component != "" {
		b.WriteString(": ")
		b.WriteString(e.Component)
	}
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithOp adds operation context to the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// New creates a new error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates a new error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a kind and message.
// If err is nil, Wrap returns nil.
func Wrap(err error, kind Kind, msg string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Wrapf wraps an existing error with a kind and formatted message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

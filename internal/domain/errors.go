// Package domain defines core types, interfaces, and errors for the form
// query engine.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SyntaxError indicates a statement that does not match any recognized
// grammar. Execution never starts; the message is surfaced verbatim.
type SyntaxError struct {
	Message string
}

func (e *SyntaxError) Error() string { return e.Message }

// UnresolvedReferenceError indicates a field id, variable, or function
// that could not be resolved during evaluation.
type UnresolvedReferenceError struct {
	Message string
}

func (e *UnresolvedReferenceError) Error() string { return e.Message }

// ArityMismatchError indicates a user function called with the wrong
// number of arguments.
type ArityMismatchError struct {
	Message string
}

func (e *ArityMismatchError) Error() string { return e.Message }

// IterationLimitError indicates a WHILE loop exceeded its safety bound.
type IterationLimitError struct {
	Message string
}

func (e *IterationLimitError) Error() string { return e.Message }

// PersistenceError indicates a record fetch, update, or insert failure.
// Batch writes record these per-record; reads abort the whole query.
type PersistenceError struct {
	Message string
}

func (e *PersistenceError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrSyntax creates a SyntaxError with a formatted message.
func ErrSyntax(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnresolvedReference creates an UnresolvedReferenceError with a
// formatted message.
func ErrUnresolvedReference(format string, args ...interface{}) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{Message: fmt.Sprintf(format, args...)}
}

// ErrArityMismatch creates an ArityMismatchError with a formatted message.
func ErrArityMismatch(format string, args ...interface{}) *ArityMismatchError {
	return &ArityMismatchError{Message: fmt.Sprintf(format, args...)}
}

// ErrIterationLimit creates an IterationLimitError with a formatted message.
func ErrIterationLimit(format string, args ...interface{}) *IterationLimitError {
	return &IterationLimitError{Message: fmt.Sprintf(format, args...)}
}

// ErrPersistence creates a PersistenceError with a formatted message.
func ErrPersistence(format string, args ...interface{}) *PersistenceError {
	return &PersistenceError{Message: fmt.Sprintf(format, args...)}
}

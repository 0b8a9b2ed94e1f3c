package services

import "fmt"

// ValidationError reports bad caller input. It is never retried.
type ValidationError struct {
	msg string
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.msg
}

// PersistenceError reports a store failure. The operation had no effect.
type PersistenceError struct {
	op  string
	err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{op: op, err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("could not %s: %s", e.op, e.err)
}

// Summary describes the failed operation without the underlying store error.
func (e *PersistenceError) Summary() string {
	return fmt.Sprintf("could not %s", e.op)
}

func (e *PersistenceError) Cause() error {
	return e.err
}

func (e *PersistenceError) Unwrap() error {
	return e.err
}

package matcher

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldMismatch indicates an expected field disagrees with the actual object.
	ErrFieldMismatch = errors.New("matcher: field mismatch")

	// ErrMalformedActual indicates the actual root object is missing.
	ErrMalformedActual = errors.New("matcher: actual object is missing")
)

// MismatchError reports the first expected field that was not satisfied.
type MismatchError struct {
	Path     string
	Expected Value
	Actual   any
	// ActualObject is the JSON serialized object that holds the field.
	ActualObject string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %q to be set to %s\nactual value: %s\nexpected value: %s\nactual object: %s",
		e.Path, e.Expected, describe(e.Actual), e.Expected, e.ActualObject)
}

func (e *MismatchError) Unwrap() error {
	return ErrFieldMismatch
}

// MalformedActualError indicates a structured comparison was requested
// against a nil actual object.
type MalformedActualError struct {
	Context string
}

func (e *MalformedActualError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("matcher: actual %s is missing", e.Context)
	}
	return ErrMalformedActual.Error()
}

func (e *MalformedActualError) Unwrap() error {
	return ErrMalformedActual
}

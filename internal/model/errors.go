// Typed errors for the engine. Callers distinguish validation failures,
// missing entities, and state-guard violations with errors.Is.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced claim, conflict, or event does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a candidate or argument failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates a state-machine guard rejected the operation
	ErrInvalidTransition = errors.New("invalid state transition")
)

// NotFoundError identifies a missing entity by kind and ID.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError identifies the field that failed candidate validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TransitionError identifies the precondition a workflow operation violated.
type TransitionError struct {
	Entity string // "claim" or "conflict"
	ID     string
	From   string
	Op     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in state %q", e.Op, e.Entity, e.ID, e.From)
}

// Is implements errors.Is support
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

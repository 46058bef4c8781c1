// Package errs defines the engine's error taxonomy. Validation, capacity and
// not-found errors are recoverable at the turn boundary; invariant errors
// signal inconsistent content or an engine defect and abort the turn.
package errs

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when a reward draw has nothing to draw from.
var ErrEmptyPool = &InvariantError{Msg: "reward pool is empty at every rarity"}

// ValidationError indicates a request that cannot be honoured right now.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// CapacityError indicates a container would exceed its slot limit.
type CapacityError struct {
	Container string
	Limit     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("your %s is full (%d slots)", e.Container, e.Limit)
}

// InvariantError indicates a defect: unknown action kind, empty reward pool,
// clock out of range and similar.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "invariant violated: " + e.Msg }

// Invariantf builds an InvariantError.
func Invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a missing session, entity or action.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// IsRecoverable reports whether err should be shown to the player rather
// than aborting the turn.
func IsRecoverable(err error) bool {
	var ve *ValidationError
	var ce *CapacityError
	var nf *NotFoundError
	return errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &nf)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsInvariant reports whether err wraps an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

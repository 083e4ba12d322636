package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Typed errors below match them via errors.Is.
var (
	ErrMalformedInput     = errors.New("malformed input")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvariantViolation = errors.New("invariant violation")
)

// MalformedInputError reports a provider record that cannot be normalized.
// Unrecoverable for that record: skip and report, never retry.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e MalformedInputError) Error() string {
	if e.Field == "" {
		return "malformed input: " + e.Reason
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// Is implements the errors.Is interface for MalformedInputError
func (e MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// StoreUnavailableError wraps a transport or storage failure. Transient: the record may be retried.
type StoreUnavailableError struct {
	Op  string
	Err error
}

// StoreUnavailable wraps err as a StoreUnavailableError for the named operation
func StoreUnavailable(op string, err error) error {
	return StoreUnavailableError{Op: op, Err: err}
}

func (e StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

// Is implements the errors.Is interface for StoreUnavailableError
func (e StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e StoreUnavailableError) Unwrap() error {
	return e.Err
}

// InvariantViolationError means stored prior state and transition logic disagree.
// It needs operator attention and is never coerced.
type InvariantViolationError struct {
	SubscriptionID string
	Reason         string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation for subscription %s: %s", e.SubscriptionID, e.Reason)
}

// Is implements the errors.Is interface for InvariantViolationError
func (e InvariantViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// ConstraintViolationError is a write the store rejected on an integrity constraint, such as a
// record that references an unknown organization. Replaying the same write fails the same way,
// so it is classed with invariant violations and never retried.
type ConstraintViolationError struct {
	Op         string
	Constraint string
	Err        error
}

func (e ConstraintViolationError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("constraint violation: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("constraint violation: %s: %s: %v", e.Op, e.Constraint, e.Err)
}

// Is implements the errors.Is interface for ConstraintViolationError
func (e ConstraintViolationError) Is(target error) bool {
	return target == ErrInvariantViolation
}

func (e ConstraintViolationError) Unwrap() error {
	return e.Err
}

// FailureReason is the stable code stored in reports and DLQ headers
type FailureReason string

const (
	FailureReasonMalformedInput     FailureReason = "MALFORMED_INPUT"
	FailureReasonStoreUnavailable   FailureReason = "STORE_UNAVAILABLE"
	FailureReasonInvariantViolation FailureReason = "INVARIANT_VIOLATION"
	FailureReasonUnknownError       FailureReason = "UNKNOWN_ERROR"
)

// FailureReasonOf classifies err into the failure taxonomy
func FailureReasonOf(err error) FailureReason {
	switch {
	case errors.Is(err, ErrMalformedInput):
		return FailureReasonMalformedInput
	case errors.Is(err, ErrInvariantViolation):
		return FailureReasonInvariantViolation
	case errors.Is(err, ErrStoreUnavailable):
		return FailureReasonStoreUnavailable
	default:
		return FailureReasonUnknownError
	}
}

// Retryable reports whether the failure is transient and the record should be redelivered
func (r FailureReason) Retryable() bool {
	return r == FailureReasonStoreUnavailable || r == FailureReasonUnknownError
}

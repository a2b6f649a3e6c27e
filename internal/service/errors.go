// Package service implements the business operations on top of the
// repository layer: slot discovery and reservation, payment
// verification, vendor onboarding, and the agent performance ledger.
// Errors returned by services fall into a small taxonomy the HTTP
// layer maps onto status codes.
package service

import "fmt"

// ValidationError reports malformed or semantically invalid input.
// Mapped to 400.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports that the request lost a race or arrived in a
// state where the operation no longer applies: slot already taken,
// transition already performed, token already used.  Mapped to 409.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// Conflictf builds a ConflictError.
func Conflictf(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// PolicyError reports an operation forbidden by business policy for
// this caller or this moment: cancelling inside the cutoff, activating
// before the fee is paid, touching another user's records.  Mapped to
// 422 or 403 depending on the handler.
type PolicyError struct{ Msg string }

func (e *PolicyError) Error() string { return e.Msg }

// Policyf builds a PolicyError.
func Policyf(format string, args ...interface{}) error {
	return &PolicyError{Msg: fmt.Sprintf(format, args...)}
}

// IntegrityError reports that stored state violates an invariant the
// system is supposed to uphold (ledger sum and running score diverge,
// duplicate verified payments).  Mapped to 500; these always warrant
// investigation.
type IntegrityError struct{ Msg string }

func (e *IntegrityError) Error() string { return e.Msg }

// Integrityf builds an IntegrityError.
func Integrityf(format string, args ...interface{}) error {
	return &IntegrityError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalError reports a failure talking to an outside system,
// usually the payment processor.  Ambiguous means the outcome is
// unknown (timeout after the request may have landed) and the caller
// must not treat the operation as failed.  Mapped to 502.
type ExternalError struct {
	Msg       string
	Ambiguous bool
	Err       error
}

func (e *ExternalError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ExternalError) Unwrap() error { return e.Err }

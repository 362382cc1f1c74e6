package authz

import "errors"

// DecisionError carries a deny decision across the service boundary so the
// HTTP layer can render the reason and status exactly as decided.
type DecisionError struct {
	Decision Decision
}

// Error implements the error interface.
func (e *DecisionError) Error() string {
	if e.Decision.Reason == ReasonNone {
		return "access denied"
	}
	return "access denied: " + string(e.Decision.Reason)
}

// ErrDenied wraps a decision as an error. Allowed decisions yield nil, so
// callers can write `if err := authz.ErrDenied(guard.Check(...)); err != nil`.
func ErrDenied(d Decision) error {
	if d.Allowed {
		return nil
	}
	return &DecisionError{Decision: d}
}

// ErrNotFound is the denial services return when a guarded resource does not
// exist. Kept as a Decision so the envelope carries the reason code.
func ErrNotFound() error {
	return &DecisionError{Decision: Deny(ReasonResourceNotFound)}
}

// AsDenied extracts a DecisionError from an error chain.
func AsDenied(err error) (*DecisionError, bool) {
	var de *DecisionError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

package domain

import "fmt"

// Error types for consistent error handling across the rate engine.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
// Checked before any I/O is attempted.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrAIService indicates the AI research collaborator failed or returned
// unusable output. Retryable from the caller's point of view.
type ErrAIService struct {
	Operation string
	Err       error
}

func (e *ErrAIService) Error() string {
	return fmt.Sprintf("ai research error [%s]: %v", e.Operation, e.Err)
}

func (e *ErrAIService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrInconsistent indicates a multi-step store update failed AND its
// compensating rollback also failed, leaving the data in an unknown state.
// Distinct from ErrExternalService so callers can react to true
// inconsistency instead of treating it as a transient store failure.
type ErrInconsistent struct {
	Resource string
	Err      error
}

func (e *ErrInconsistent) Error() string {
	return fmt.Sprintf("data inconsistency on %s: update failed and rollback failed: %v", e.Resource, e.Err)
}

func (e *ErrInconsistent) Unwrap() error {
	return e.Err
}

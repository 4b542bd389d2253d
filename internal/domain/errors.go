package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrInvalidAmount indicates a transaction amount that is not a positive,
// finite number. The ledger is left untouched when it is returned.
type ErrInvalidAmount struct {
	Value string
}

func (e *ErrInvalidAmount) Error() string {
	if e.Value == "" {
		return "invalid amount: must be a positive number"
	}
	return fmt.Sprintf("invalid amount %q: must be a positive number", e.Value)
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPersistenceUnavailable indicates the backing store could not be read
// or written. Ledger operations never return it to callers; it is logged
// and reported through readiness checks.
type ErrPersistenceUnavailable struct {
	Op  string
	Err error
}

func (e *ErrPersistenceUnavailable) Error() string {
	return fmt.Sprintf("persistence unavailable [%s]: %v", e.Op, e.Err)
}

func (e *ErrPersistenceUnavailable) Unwrap() error {
	return e.Err
}

// ErrCorruptSnapshot indicates a stored value exists but cannot be decoded.
// Callers treat it the same as an absent value.
type ErrCorruptSnapshot struct {
	Key string
	Err error
}

func (e *ErrCorruptSnapshot) Error() string {
	return fmt.Sprintf("corrupt snapshot at %q: %v", e.Key, e.Err)
}

func (e *ErrCorruptSnapshot) Unwrap() error {
	return e.Err
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

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

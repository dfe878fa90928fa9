package fingerprint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMAC indicates the MAC address format is invalid
	ErrInvalidMAC = errors.New("invalid MAC address format")

	// ErrEmptyMAC indicates an empty MAC address was provided
	ErrEmptyMAC = errors.New("empty MAC address")

	// ErrVendorNotFound indicates no vendor is registered for the prefix
	ErrVendorNotFound = errors.New("vendor not found")
)

// ValidationError wraps validation errors with the invalid value
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

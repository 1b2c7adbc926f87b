package models

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by operations that need a current user identity
// when no wallet connection is active.
var ErrNotConnected = errors.New("no wallet connected")

// ConnectionError reports a failed wallet/provider connection attempt. It is
// surfaced to the caller and never retried automatically.
type ConnectionError struct {
	Provider WalletType
	Reason   string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s connection failed: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s connection failed: %s", e.Provider, e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotFoundError reports a reference to an entity that does not exist in the
// relevant set.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError reports input that failed a domain rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

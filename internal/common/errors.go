// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Registry errors.
	ErrNotFound        = errors.New("not found")
	ErrDuplicateModel  = errors.New("model version already registered")
	ErrNoActiveModel   = errors.New("no active model version")
	ErrCorruptRegistry = errors.New("model registry corrupted")

	// Detection errors.
	ErrNoEntries       = errors.New("no ledger entries to analyze")
	ErrModelUnloadable = errors.New("model artifacts could not be loaded")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrLabNotFound      = fmt.Errorf("%w: lab", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("%w: document", ErrNotFound)
	ErrSessionNotFound  = fmt.Errorf("%w: session", ErrNotFound)
	ErrEntityNotFound   = fmt.Errorf("%w: entity", ErrNotFound)

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyExists      = errors.New("already exists")

	// ErrNoBackingEntity is returned for edits of a cell that has no entity
	// behind it.
	ErrNoBackingEntity = errors.New("cell has no backing entity")
	ErrUnknownSection  = errors.New("unknown section")
	ErrUnknownColumn   = errors.New("unknown sample column")
	ErrUnknownRow      = errors.New("unknown sample row")

	ErrExtractionFailed = errors.New("extraction failed")
	ErrValidation       = errors.New("validation failed")
)

// NewNotFoundError wraps ErrNotFound with the resource and id.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrInactiveAccount)
}

func IsEditError(err error) bool {
	return errors.Is(err, ErrNoBackingEntity) ||
		errors.Is(err, ErrUnknownSection) ||
		errors.Is(err, ErrUnknownColumn) ||
		errors.Is(err, ErrUnknownRow) ||
		errors.Is(err, ErrEntityNotFound)
}

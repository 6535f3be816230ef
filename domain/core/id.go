package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	LabID      ID
	UserID     ID
	DocumentID ID
)

func (id LabID) String() string      { return ID(id).String() }
func (id UserID) String() string     { return ID(id).String() }
func (id DocumentID) String() string { return ID(id).String() }

func NewLabID() LabID           { return LabID(NewID()) }
func NewUserID() UserID         { return UserID(NewID()) }
func NewDocumentID() DocumentID { return DocumentID(NewID()) }

// ParseDocumentID validates a document id taken from a request path.
func ParseDocumentID(s string) (DocumentID, error) {
	if err := parseUUID("document", s); err != nil {
		return "", err
	}
	return DocumentID(strings.TrimSpace(s)), nil
}

// ParseUserID validates a user id taken from a request path.
func ParseUserID(s string) (UserID, error) {
	if err := parseUUID("user", s); err != nil {
		return "", err
	}
	return UserID(strings.TrimSpace(s)), nil
}

// ParseLabID validates a lab id.
func ParseLabID(s string) (LabID, error) {
	if err := parseUUID("lab", s); err != nil {
		return "", err
	}
	return LabID(strings.TrimSpace(s)), nil
}

func parseUUID(kind, s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%w: %s ID cannot be empty", ErrValidation, kind)
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("%w: invalid %s ID %q: %v", ErrValidation, kind, s, err)
	}
	return nil
}

package models

import (
	"strings"
	"time"

	"cocreview/domain/core"
)

// Role is a user's permission level within a lab.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleReviewer:
		return RoleReviewer, true
	}
	return "", false
}

// User represents a system user
type User struct {
	ID           core.UserID `json:"id" db:"id"`
	LabID        core.LabID  `json:"lab_id" db:"lab_id"`
	Email        string      `json:"email" db:"email"`
	Username     string      `json:"username" db:"username"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         Role        `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user may manage labs and users.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Lab is a tenant. Every document and user belongs to exactly one lab.
type Lab struct {
	ID        core.LabID `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Code      string     `json:"code" db:"code"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Session is a login session. Only the hash of the bearer token is stored.
type Session struct {
	TokenHash core.Hash   `json:"-" db:"token_hash"`
	UserID    core.UserID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time   `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

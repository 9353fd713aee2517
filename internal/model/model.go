// Package model defines domain entities shared by the client, session and service layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the kind of account chosen at signup.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Roles lists every selectable role in display order.
var Roles = []Role{RoleStudent, RoleTeacher}

// ParseRole maps user input to a Role. Empty input yields "" without error
// so callers can report a missing selection separately.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RoleStudent, RoleTeacher:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Credentials is an email/password pair.
type Credentials struct {
	Email    string
	Password string
}

// SignupForm is the signup screen input.
type SignupForm struct {
	Role     Role
	Username string
	Email    string
	Password string
}

// AccountRecord is a user account as created on the backend.
type AccountRecord struct {
	ID          string // assigned by the backend
	DisplayName string
	Email       string
	Role        Role
}

// ProfileRecord is the personal-info step draft.
type ProfileRecord struct {
	FirstName    string
	MiddleName   string
	LastName     string
	Suffix       string
	UsesNickname bool
	Nickname     string // only meaningful when UsesNickname
}

// Session is the persisted login state.
type Session struct {
	Token     string
	ExpiresAt time.Time // zero when unknown
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

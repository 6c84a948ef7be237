package models

import (
	"errors"
	"strings"
)

// ErrInvalidUser is returned when a user record fails shape validation.
var ErrInvalidUser = errors.New("invalid user: email is required")

// User represents a person known to the system.
//
// Users are keyed by email. They are created on first login (via the identity
// provider) or when another member adds them to a group, and are never
// hard-deleted; leaving a group only removes the membership reference.
type User struct {
	// Email is the unique, verified identity of the user.
	Email string `json:"email"`

	// Name is the display name. Mutable; historical expenses reference the
	// user by email and pick up renames on display.
	Name string `json:"name"`

	// Groups is the list of group names this user belongs to.
	Groups []string `json:"groups"`

	// PasswordHash is set only for password-authenticated accounts.
	// Accounts created through the identity provider leave it empty.
	PasswordHash string `json:"password_hash,omitempty"`

	// CreatedAt is the Unix timestamp when the user was first seen.
	CreatedAt int64 `json:"created_at"`
}

// NewUser constructs a validated user record. The display name defaults to
// the email when empty.
func NewUser(email, name string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidUser
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = email
	}
	return &User{Email: email, Name: name}, nil
}

// InGroup reports whether the user is a member of the named group.
func (u *User) InGroup(groupName string) bool {
	for _, g := range u.Groups {
		if g == groupName {
			return true
		}
	}
	return false
}

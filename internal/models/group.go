package models

import (
	"errors"
	"strings"
)

// ErrInvalidGroup is returned when a group record fails shape validation.
var ErrInvalidGroup = errors.New("invalid group: name is required")

// Group represents a set of people who split expenses together.
//
// The group name is unique and acts as the identifier. Members are referenced
// by email; every member listed must exist as a User. The group owns its
// expenses by containment.
type Group struct {
	// Name is the unique display name and identifier of the group.
	Name string `json:"name"`

	// Members is the ordered list of member emails.
	Members []string `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"created_at"`
}

// NewGroup constructs a validated group with the creator as first member.
func NewGroup(name, creatorEmail string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidGroup
	}
	g := &Group{Name: name}
	if creatorEmail != "" {
		g.Members = []string{creatorEmail}
	}
	return g, nil
}

// HasMember reports whether the email is a current member of the group.
func (g *Group) HasMember(email string) bool {
	for _, m := range g.Members {
		if m == email {
			return true
		}
	}
	return false
}

// Package storage provides abstractions for the durable expense ledger.
package storage

import (
	"context"
	"errors"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

var (
	// ErrNotFound is returned when a referenced user or group does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a user or group whose
	// identity is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Store defines the ledger operations over users, groups, and expenses.
//
// All operations are synchronous read-modify-write against the full record
// set; there are no partial or transactional semantics beyond each backend's
// own write. Expenses are append-only: committed expenses are never edited in
// place. Two backends implement this interface: a SQLite database and a JSON
// snapshot directory.
type Store interface {
	// CreateUser persists a new user. Fails with ErrAlreadyExists if the
	// email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by email. Fails with ErrNotFound.
	GetUser(ctx context.Context, email string) (*models.User, error)

	// ListUsers returns all known users.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// RenameUser updates a user's display name. Historical expenses are
	// untouched; they reference the user by email.
	RenameUser(ctx context.Context, email, name string) error

	// SetPasswordHash stores the credential hash for a password account.
	SetPasswordHash(ctx context.Context, email, hash string) error

	// CreateGroup persists a new group and records the membership on each
	// listed member. Fails with ErrAlreadyExists if the name is taken and
	// ErrNotFound if a listed member does not exist as a user.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by name. Fails with ErrNotFound.
	GetGroup(ctx context.Context, name string) (*models.Group, error)

	// ListGroups returns the groups the given user belongs to; all groups
	// when email is empty.
	ListGroups(ctx context.Context, email string) ([]*models.Group, error)

	// AddMember adds a user to a group, creating the user record when the
	// email is unknown. Adding an existing member is a no-op.
	AddMember(ctx context.Context, groupName string, user *models.User) error

	// RemoveMember removes a user from a group. Historical expenses keep
	// their references; display-name resolution falls back to the email.
	RemoveMember(ctx context.Context, groupName, email string) error

	// DeleteGroup deletes a group, its expenses, and the membership
	// reference on every former member.
	DeleteGroup(ctx context.Context, name string) error

	// AppendExpenses appends committed expenses to a group's ledger,
	// assigning IDs and timestamps. Saved expenses are immutable.
	AppendExpenses(ctx context.Context, groupName string, expenses []*models.Expense) error

	// ListExpenses returns a group's expenses in commit order.
	ListExpenses(ctx context.Context, groupName string) ([]*models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}

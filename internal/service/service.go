// Package service implements the application logic on top of the store,
// the calculator, the receipt parser and the notifier.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

var (
	// ErrNotMember is returned when the requester does not belong to the
	// group they are operating on.
	ErrNotMember = errors.New("requester is not a member of the group")

	// ErrNoPending is returned when a commit finds nothing staged.
	ErrNoPending = errors.New("no pending expenses to commit")
)

// resolveName returns the display name on record for an email, or the bare
// email when the user is unknown. Removed members keep showing up in
// history under their email.
func resolveName(ctx context.Context, store storage.Store, email string) string {
	user, err := store.GetUser(ctx, strings.ToLower(email))
	if err != nil || user.Name == "" {
		return strings.ToLower(email)
	}
	return user.Name
}

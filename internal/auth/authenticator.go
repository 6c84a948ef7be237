package auth

import (
	"context"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction keeps the identity-provider boundary narrow: the rest of
// the system only needs a verified unique email and a display name per
// authenticated principal. Token refresh and lifecycle live outside it.
type Authenticator interface {
	// Register creates a new account. The credential format depends on the
	// implementation: a password, or an identity-provider token.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the user. Identity
	// providers that carry the email inside the credential may ignore the
	// email argument. Implementations create the user on first login where
	// that matches the provider's contract.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the
	// implementation's requirements before any account is touched.
	ValidateCredential(credential string) error
}

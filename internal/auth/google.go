package auth

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

var (
	ErrUnverifiedEmail = errors.New("identity provider did not verify the email")
	ErrEmptyIDToken    = errors.New("id token required")
)

// tokenValidator validates an ID token and returns its payload.
// Indirection over idtoken.Validate so tests can substitute a fake.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleAuthenticator verifies Google ID tokens. The only things the system
// takes from the provider are a verified unique email and a display name;
// the OAuth token lifecycle stays on the client side of this boundary.
//
// Users are created on first login, matching the app's original behavior.
type GoogleAuthenticator struct {
	store    storage.Store
	audience string
	validate tokenValidator
}

// NewGoogleAuthenticator creates an authenticator that accepts ID tokens
// minted for the given OAuth client ID (the audience).
func NewGoogleAuthenticator(store storage.Store, audience string) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		store:    store,
		audience: audience,
		validate: idtoken.Validate,
	}
}

// ValidateCredential checks the credential shape only; cryptographic
// verification happens in Authenticate.
func (a *GoogleAuthenticator) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrEmptyIDToken
	}
	return nil
}

// Register is the same flow as Authenticate: the provider owns account
// creation, and first login creates the local record.
func (a *GoogleAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.User, error) {
	return a.Authenticate(ctx, email, credential)
}

// Authenticate verifies the ID token and returns the user, creating the
// record on first login. The email argument is ignored; the token is the
// source of identity.
func (a *GoogleAuthenticator) Authenticate(ctx context.Context, _, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	payload, err := a.validate(ctx, credential, a.audience)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return nil, ErrUnverifiedEmail
	}
	name, _ := payload.Claims["name"].(string)

	user, err := a.store.GetUser(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user, err = models.NewUser(email, name)
	if err != nil {
		return nil, err
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

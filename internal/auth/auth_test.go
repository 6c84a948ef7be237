package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage/snapshot"
)

func newTestStore(t *testing.T) *snapshot.SnapshotStore {
	t.Helper()
	store, err := snapshot.New(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot.New failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user, _ := models.NewUser("alice@example.com", "Alice")

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Email != "alice@example.com" || claims.Name != "Alice" {
		t.Errorf("claims = %+v, want alice", claims)
	}
}

func TestJWTRejectsBadTokens(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	if _, err := manager.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}

	other := NewJWTManager("different-secret", time.Hour)
	user, _ := models.NewUser("alice@example.com", "Alice")
	token, _ := other.Generate(user)
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong-secret token error = %v, want ErrInvalidToken", err)
	}

	expired := NewJWTManager("test-secret", -time.Hour)
	token, _ = expired.Generate(user)
	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordRegisterAndAuthenticate(t *testing.T) {
	store := newTestStore(t)
	authenticator := NewPasswordAuthenticator(store)
	ctx := context.Background()

	if _, err := authenticator.Register(ctx, "alice@example.com", "Alice", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password error = %v, want ErrWeakPassword", err)
	}

	user, err := authenticator.Register(ctx, "alice@example.com", "Alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" || user.PasswordHash == "" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := authenticator.Register(ctx, "alice@example.com", "Alice", "another password"); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate register error = %v, want ErrEmailExists", err)
	}

	if _, err := authenticator.Authenticate(ctx, "alice@example.com", "correct horse battery"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := authenticator.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := authenticator.Authenticate(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestPasswordRegisterClaimsPlaceholderAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A record created by a group invite has no credential yet.
	placeholder, _ := models.NewUser("bob@example.com", "Bob")
	if err := store.CreateUser(ctx, placeholder); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	authenticator := NewPasswordAuthenticator(store)
	user, err := authenticator.Register(ctx, "bob@example.com", "Bob", "a real password")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash == "" {
		t.Error("expected the placeholder account to gain a credential")
	}
	if _, err := authenticator.Authenticate(ctx, "bob@example.com", "a real password"); err != nil {
		t.Errorf("Authenticate failed after claim: %v", err)
	}
}

func fakeValidator(claims map[string]any, err error) tokenValidator {
	return func(context.Context, string, string) (*idtoken.Payload, error) {
		if err != nil {
			return nil, err
		}
		return &idtoken.Payload{Claims: claims}, nil
	}
}

func TestGoogleAuthenticateCreatesUserOnFirstLogin(t *testing.T) {
	store := newTestStore(t)
	authenticator := NewGoogleAuthenticator(store, "client-id")
	authenticator.validate = fakeValidator(map[string]any{
		"email": "carol@example.com", "email_verified": true, "name": "Carol",
	}, nil)
	ctx := context.Background()

	user, err := authenticator.Authenticate(ctx, "", "some-id-token")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user.Email != "carol@example.com" || user.Name != "Carol" {
		t.Errorf("unexpected user: %+v", user)
	}

	// Second login finds the same record.
	again, err := authenticator.Authenticate(ctx, "", "some-id-token")
	if err != nil {
		t.Fatalf("second Authenticate failed: %v", err)
	}
	if again.Email != user.Email {
		t.Errorf("expected the same account, got %+v", again)
	}
}

func TestGoogleAuthenticateRejections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	authenticator := NewGoogleAuthenticator(store, "client-id")

	if _, err := authenticator.Authenticate(ctx, "", ""); !errors.Is(err, ErrEmptyIDToken) {
		t.Errorf("empty token error = %v, want ErrEmptyIDToken", err)
	}

	authenticator.validate = fakeValidator(nil, errors.New("signature mismatch"))
	if _, err := authenticator.Authenticate(ctx, "", "bad-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("invalid token error = %v, want ErrInvalidToken", err)
	}

	authenticator.validate = fakeValidator(map[string]any{
		"email": "dave@example.com", "email_verified": false,
	}, nil)
	if _, err := authenticator.Authenticate(ctx, "", "unverified"); !errors.Is(err, ErrUnverifiedEmail) {
		t.Errorf("unverified email error = %v, want ErrUnverifiedEmail", err)
	}
}

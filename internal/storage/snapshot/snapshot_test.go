package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

func TestSnapshotStoreEmptyDirectory(t *testing.T) {
	// A fresh directory with no collection files is a valid empty ledger.
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed on empty directory: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected empty ledger, got %d users", len(users))
	}
}

func TestSnapshotStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	alice, _ := models.NewUser("alice@example.com", "Alice")
	bob, _ := models.NewUser("bob@example.com", "Bob")
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, bob); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	group := &models.Group{Name: "trip", Members: []string{"alice@example.com", "bob@example.com"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	expenses := []*models.Expense{
		{Item: "Pizza", Amount: 20.0, Payer: "alice@example.com", Assignees: []string{"bob@example.com"}, Share: 20.0},
	}
	if err := store.AppendExpenses(ctx, "trip", expenses); err != nil {
		t.Fatalf("AppendExpenses failed: %v", err)
	}

	// Every mutation rewrites the collection files; a new store over the
	// same directory sees the full state.
	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New failed after restart: %v", err)
	}

	user, err := reopened.GetUser(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUser failed after restart: %v", err)
	}
	if !user.InGroup("trip") {
		t.Errorf("expected membership to survive restart, got %v", user.Groups)
	}

	saved, err := reopened.ListExpenses(ctx, "trip")
	if err != nil {
		t.Fatalf("ListExpenses failed after restart: %v", err)
	}
	if len(saved) != 1 || saved[0].Item != "Pizza" {
		t.Errorf("expected persisted expense, got %+v", saved)
	}
	if saved[0].ID == "" {
		t.Error("expected assigned expense ID to persist")
	}
}

func TestSnapshotStoreCollectionFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	alice, _ := models.NewUser("alice@example.com", "Alice")
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "users.json")); err != nil {
		t.Errorf("expected users.json after mutation: %v", err)
	}
	// The other collections have not been touched yet.
	if _, err := os.Stat(filepath.Join(dir, "groups.json")); !os.IsNotExist(err) {
		t.Errorf("expected groups.json to be absent, got %v", err)
	}
}

func TestSnapshotStoreDeleteGroupCleansMemberships(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	for _, u := range []struct{ email, name string }{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
	} {
		user, _ := models.NewUser(u.email, u.name)
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	group := &models.Group{Name: "trip", Members: []string{"alice@example.com", "bob@example.com"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	if err := store.DeleteGroup(ctx, "trip"); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		user, err := store.GetUser(ctx, email)
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.InGroup("trip") {
			t.Errorf("expected trip removed from %s's groups, got %v", email, user.Groups)
		}
	}

	if _, err := store.GetGroup(ctx, "trip"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotStoreReturnsCopies(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	alice, _ := models.NewUser("alice@example.com", "Alice")
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	user, _ := store.GetUser(ctx, "alice@example.com")
	user.Name = "Mallory"

	again, _ := store.GetUser(ctx, "alice@example.com")
	if again.Name != "Alice" {
		t.Errorf("store state mutated through returned record: %s", again.Name)
	}
}

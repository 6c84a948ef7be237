package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "smartsplit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateUser(t *testing.T, store *SQLiteStore, email, name string) {
	t.Helper()
	user, err := models.NewUser(email, name)
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and GetUser", func(t *testing.T) {
		mustCreateUser(t, store, "alice@example.com", "Alice")

		user, err := store.GetUser(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if user.Name != "Alice" {
			t.Errorf("name = %s, want Alice", user.Name)
		}
		if user.CreatedAt == 0 {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("duplicate user rejected", func(t *testing.T) {
		user, _ := models.NewUser("alice@example.com", "Imposter")
		err := store.CreateUser(ctx, user)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("unknown user is NotFound", func(t *testing.T) {
		_, err := store.GetUser(ctx, "ghost@example.com")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("CreateGroup links memberships", func(t *testing.T) {
		mustCreateUser(t, store, "bob@example.com", "Bob")

		group := &models.Group{Name: "trip", Members: []string{"alice@example.com", "bob@example.com"}}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		alice, err := store.GetUser(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !alice.InGroup("trip") {
			t.Errorf("expected trip in alice's groups, got %v", alice.Groups)
		}
	})

	t.Run("CreateGroup with unknown member is NotFound", func(t *testing.T) {
		group := &models.Group{Name: "phantom", Members: []string{"ghost@example.com"}}
		err := store.CreateGroup(ctx, group)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("AddMember creates unknown users", func(t *testing.T) {
		user, _ := models.NewUser("carol@example.com", "Carol")
		if err := store.AddMember(ctx, "trip", user); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		group, err := store.GetGroup(ctx, "trip")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(group.Members) != 3 {
			t.Errorf("members = %v, want 3 entries", group.Members)
		}

		carol, err := store.GetUser(ctx, "carol@example.com")
		if err != nil {
			t.Fatalf("expected carol to be created: %v", err)
		}
		if !carol.InGroup("trip") {
			t.Errorf("expected trip in carol's groups, got %v", carol.Groups)
		}
	})

	t.Run("AddMember twice is a no-op", func(t *testing.T) {
		user, _ := models.NewUser("carol@example.com", "Carol")
		if err := store.AddMember(ctx, "trip", user); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
		group, _ := store.GetGroup(ctx, "trip")
		if len(group.Members) != 3 {
			t.Errorf("members = %v, want 3 entries after duplicate add", group.Members)
		}
	})

	t.Run("member order is preserved", func(t *testing.T) {
		group, _ := store.GetGroup(ctx, "trip")
		want := []string{"alice@example.com", "bob@example.com", "carol@example.com"}
		for i, email := range want {
			if group.Members[i] != email {
				t.Errorf("member[%d] = %s, want %s", i, group.Members[i], email)
			}
		}
	})

	t.Run("AppendExpenses and ListExpenses round trip", func(t *testing.T) {
		expenses := []*models.Expense{
			{Item: "Pizza", Amount: 20.0, Payer: "alice@example.com", Assignees: []string{"alice@example.com", "bob@example.com"}, Share: 10.0},
			{Item: "Beer", Amount: 9.0, Payer: "bob@example.com", Assignees: []string{"carol@example.com"}, Share: 9.0},
		}
		if err := store.AppendExpenses(ctx, "trip", expenses); err != nil {
			t.Fatalf("AppendExpenses failed: %v", err)
		}
		if expenses[0].ID == "" || expenses[0].CreatedAt == 0 {
			t.Error("expected ID and CreatedAt to be assigned")
		}

		saved, err := store.ListExpenses(ctx, "trip")
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(saved) != 2 {
			t.Fatalf("expenses = %d, want 2", len(saved))
		}
		if saved[0].Item != "Pizza" || saved[1].Item != "Beer" {
			t.Errorf("commit order not preserved: %s, %s", saved[0].Item, saved[1].Item)
		}
		if len(saved[0].Assignees) != 2 || saved[0].Assignees[0] != "alice@example.com" {
			t.Errorf("assignees not preserved: %v", saved[0].Assignees)
		}
	})

	t.Run("RemoveMember keeps historical expenses", func(t *testing.T) {
		if err := store.RemoveMember(ctx, "trip", "carol@example.com"); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}

		group, _ := store.GetGroup(ctx, "trip")
		if group.HasMember("carol@example.com") {
			t.Error("expected carol removed from members")
		}

		// Carol's expense references survive the removal.
		saved, _ := store.ListExpenses(ctx, "trip")
		found := false
		for _, e := range saved {
			if e.HasAssignee("carol@example.com") {
				found = true
			}
		}
		if !found {
			t.Error("expected historical expense to keep carol as assignee")
		}
	})

	t.Run("RenameUser leaves expenses untouched", func(t *testing.T) {
		if err := store.RenameUser(ctx, "alice@example.com", "Alicia"); err != nil {
			t.Fatalf("RenameUser failed: %v", err)
		}
		user, _ := store.GetUser(ctx, "alice@example.com")
		if user.Name != "Alicia" {
			t.Errorf("name = %s, want Alicia", user.Name)
		}
		saved, _ := store.ListExpenses(ctx, "trip")
		if saved[0].Payer != "alice@example.com" {
			t.Errorf("payer reference changed: %s", saved[0].Payer)
		}
	})

	t.Run("DeleteGroup removes memberships and expenses", func(t *testing.T) {
		if err := store.DeleteGroup(ctx, "trip"); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}

		alice, _ := store.GetUser(ctx, "alice@example.com")
		if alice.InGroup("trip") {
			t.Errorf("expected trip removed from alice's groups, got %v", alice.Groups)
		}

		_, err := store.ListExpenses(ctx, "trip")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound after delete", err)
		}
	})

	t.Run("ListGroups filters by membership", func(t *testing.T) {
		group := &models.Group{Name: "dinner", Members: []string{"bob@example.com"}}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		groups, err := store.ListGroups(ctx, "bob@example.com")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 1 || groups[0].Name != "dinner" {
			t.Errorf("groups = %v, want [dinner]", groups)
		}

		groups, err = store.ListGroups(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("expected no groups for alice, got %d", len(groups))
		}
	})
}

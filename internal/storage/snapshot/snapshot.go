// Package snapshot provides a JSON-file implementation of the storage.Store
// interface.
//
// The ledger is held in memory and persisted as three independent keyed
// collections: users.json (by email), groups.json (by name), and
// expenses.json (by group name). The collections are read once at startup
// and each one is rewritten in full after every mutation; a missing file is
// treated as an empty collection, not an error. Concurrent writers get
// last-write-wins on the whole snapshot.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

const (
	usersFile    = "users.json"
	groupsFile   = "groups.json"
	expensesFile = "expenses.json"
)

// Ensure SnapshotStore implements storage.Store
var _ storage.Store = (*SnapshotStore)(nil)

// SnapshotStore implements storage.Store over JSON snapshot files.
type SnapshotStore struct {
	mu  sync.Mutex
	dir string

	users    map[string]*models.User
	groups   map[string]*models.Group
	expenses map[string][]*models.Expense
}

// New creates a SnapshotStore rooted at dir, loading any existing
// collections. The directory is created when absent.
func New(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &SnapshotStore{
		dir:      dir,
		users:    make(map[string]*models.User),
		groups:   make(map[string]*models.Group),
		expenses: make(map[string][]*models.Expense),
	}
	if err := loadJSON(filepath.Join(dir, usersFile), &s.users); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, groupsFile), &s.groups); err != nil {
		return nil, err
	}
	if err := loadJSON(filepath.Join(dir, expensesFile), &s.expenses); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op; every mutation is already flushed to disk.
func (s *SnapshotStore) Close() error { return nil }

// loadJSON reads a collection file into dst. Absence is an empty collection.
func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// saveJSON rewrites a collection file in full.
func saveJSON(path string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *SnapshotStore) saveUsers() error {
	return saveJSON(filepath.Join(s.dir, usersFile), s.users)
}

func (s *SnapshotStore) saveGroups() error {
	return saveJSON(filepath.Join(s.dir, groupsFile), s.groups)
}

func (s *SnapshotStore) saveExpenses() error {
	return saveJSON(filepath.Join(s.dir, expensesFile), s.expenses)
}

// CreateUser persists a new user.
func (s *SnapshotStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	s.users[user.Email] = cloneUser(user)
	return s.saveUsers()
}

// GetUser retrieves a user by email.
func (s *SnapshotStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return cloneUser(user), nil
}

// ListUsers returns all known users, oldest first.
func (s *SnapshotStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt != users[j].CreatedAt {
			return users[i].CreatedAt < users[j].CreatedAt
		}
		return users[i].Email < users[j].Email
	})
	return users, nil
}

// RenameUser updates the display name only.
func (s *SnapshotStore) RenameUser(ctx context.Context, email, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	user.Name = name
	return s.saveUsers()
}

// SetPasswordHash stores the credential hash for a password account.
func (s *SnapshotStore) SetPasswordHash(ctx context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	user.PasswordHash = hash
	return s.saveUsers()
}

// CreateGroup persists a new group and records the membership on each member.
func (s *SnapshotStore) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.Name]; exists {
		return fmt.Errorf("group %s: %w", group.Name, storage.ErrAlreadyExists)
	}
	for _, email := range group.Members {
		if _, ok := s.users[email]; !ok {
			return fmt.Errorf("member %s: %w", email, storage.ErrNotFound)
		}
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	s.groups[group.Name] = cloneGroup(group)
	for _, email := range group.Members {
		user := s.users[email]
		if !user.InGroup(group.Name) {
			user.Groups = append(user.Groups, group.Name)
		}
	}

	if err := s.saveGroups(); err != nil {
		return err
	}
	return s.saveUsers()
}

// GetGroup retrieves a group by name.
func (s *SnapshotStore) GetGroup(ctx context.Context, name string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", name, storage.ErrNotFound)
	}
	return cloneGroup(group), nil
}

// ListGroups returns the groups the email belongs to; all groups when empty.
func (s *SnapshotStore) ListGroups(ctx context.Context, email string) ([]*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := make([]*models.Group, 0, len(s.groups))
	for _, group := range s.groups {
		if email == "" || group.HasMember(email) {
			groups = append(groups, cloneGroup(group))
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt != groups[j].CreatedAt {
			return groups[i].CreatedAt < groups[j].CreatedAt
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

// AddMember adds a user to a group, creating the user when unknown.
func (s *SnapshotStore) AddMember(ctx context.Context, groupName string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupName]
	if !ok {
		return fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	existing, known := s.users[user.Email]
	if !known {
		if user.CreatedAt == 0 {
			user.CreatedAt = time.Now().Unix()
		}
		existing = cloneUser(user)
		s.users[user.Email] = existing
	}

	if !group.HasMember(user.Email) {
		group.Members = append(group.Members, user.Email)
	}
	if !existing.InGroup(groupName) {
		existing.Groups = append(existing.Groups, groupName)
	}

	if err := s.saveGroups(); err != nil {
		return err
	}
	return s.saveUsers()
}

// RemoveMember removes a user from a group. Historical expenses keep their
// references.
func (s *SnapshotStore) RemoveMember(ctx context.Context, groupName, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupName]
	if !ok {
		return fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}
	if !group.HasMember(email) {
		return fmt.Errorf("member %s in group %s: %w", email, groupName, storage.ErrNotFound)
	}

	group.Members = remove(group.Members, email)
	if user, known := s.users[email]; known {
		user.Groups = remove(user.Groups, groupName)
	}

	if err := s.saveGroups(); err != nil {
		return err
	}
	return s.saveUsers()
}

// DeleteGroup deletes a group, its expenses, and the membership reference on
// every former member.
func (s *SnapshotStore) DeleteGroup(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[name]
	if !ok {
		return fmt.Errorf("group %s: %w", name, storage.ErrNotFound)
	}

	for _, email := range group.Members {
		if user, known := s.users[email]; known {
			user.Groups = remove(user.Groups, name)
		}
	}
	delete(s.groups, name)
	delete(s.expenses, name)

	if err := s.saveGroups(); err != nil {
		return err
	}
	if err := s.saveUsers(); err != nil {
		return err
	}
	return s.saveExpenses()
}

// AppendExpenses appends committed expenses to a group's ledger.
func (s *SnapshotStore) AppendExpenses(ctx context.Context, groupName string, expenses []*models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupName]; !ok {
		return fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	now := time.Now().Unix()
	for _, expense := range expenses {
		e := cloneExpense(expense)
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if e.CreatedAt == 0 {
			e.CreatedAt = now
		}
		expense.ID = e.ID
		expense.CreatedAt = e.CreatedAt
		s.expenses[groupName] = append(s.expenses[groupName], e)
	}
	return s.saveExpenses()
}

// ListExpenses returns a group's expenses in commit order.
func (s *SnapshotStore) ListExpenses(ctx context.Context, groupName string) ([]*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupName]; !ok {
		return nil, fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	expenses := make([]*models.Expense, 0, len(s.expenses[groupName]))
	for _, expense := range s.expenses[groupName] {
		expenses = append(expenses, cloneExpense(expense))
	}
	return expenses, nil
}

func remove(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Groups = append([]string(nil), u.Groups...)
	return &c
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	return &c
}

func cloneExpense(e *models.Expense) *models.Expense {
	c := *e
	c.Assignees = append([]string(nil), e.Assignees...)
	return &c
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// CreateGroup persists a new group and its initial member list.
// Every listed member must already exist as a user.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM groups WHERE name = ?", group.Name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("group %s: %w", group.Name, storage.ErrAlreadyExists)
	}

	for _, email := range group.Members {
		var known int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM users WHERE email = ?", email,
		).Scan(&known); err != nil {
			return fmt.Errorf("failed to check member: %w", err)
		}
		if known == 0 {
			return fmt.Errorf("member %s: %w", email, storage.ErrNotFound)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (name, created_at) VALUES (?, ?)",
		group.Name, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, email := range group.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_name, email, position) VALUES (?, ?, ?)",
			group.Name, email, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by name with its ordered member list.
func (s *SQLiteStore) GetGroup(ctx context.Context, name string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, created_at FROM groups WHERE name = ?", name,
	).Scan(&group.Name, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM group_members WHERE group_name = ? ORDER BY position",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return group, nil
}

// ListGroups returns the groups the email belongs to; all groups when the
// email is empty.
func (s *SQLiteStore) ListGroups(ctx context.Context, email string) ([]*models.Group, error) {
	query := "SELECT name FROM groups ORDER BY created_at"
	args := []any{}
	if email != "" {
		query = `SELECT g.name FROM groups g
			JOIN group_members m ON m.group_name = g.name
			WHERE m.email = ? ORDER BY g.created_at`
		args = append(args, email)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(names))
	for _, name := range names {
		group, err := s.GetGroup(ctx, name)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// AddMember adds a user to a group, creating the user record when the email
// is unknown. Adding an existing member is a no-op.
func (s *SQLiteStore) AddMember(ctx context.Context, groupName string, user *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM groups WHERE name = ?", groupName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	var known int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM users WHERE email = ?", user.Email,
	).Scan(&known)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if known == 0 {
		if user.CreatedAt == 0 {
			user.CreatedAt = time.Now().Unix()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)",
			user.Email, user.Name, user.PasswordHash, user.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position)+1, 0) FROM group_members WHERE group_name = ?",
		groupName,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to compute member position: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_members (group_name, email, position) VALUES (?, ?, ?)",
		groupName, user.Email, next,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a group. Removal is permitted even when
// historical expenses still reference the member; those references resolve
// to the last-known display name or the bare email on display.
func (s *SQLiteStore) RemoveMember(ctx context.Context, groupName, email string) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM groups WHERE name = ?", groupName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM group_members WHERE group_name = ? AND email = ?",
		groupName, email,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return requireRow(res, fmt.Sprintf("member %s in group %s", email, groupName))
}

// DeleteGroup deletes a group. Member and expense rows cascade, which also
// removes the group from every former member's membership list.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireRow(res, fmt.Sprintf("group %s", name))
}

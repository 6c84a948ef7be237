package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// CreateUser persists a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM users WHERE email = ?", user.Email,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.Email, user.Name, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by email, with group memberships resolved from
// the membership table.
func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT email, name, password_hash, created_at FROM users WHERE email = ?",
		email,
	).Scan(&user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	groups, err := s.memberGroups(ctx, email)
	if err != nil {
		return nil, err
	}
	user.Groups = groups
	return user, nil
}

// ListUsers returns all known users.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT email, name, password_hash, created_at FROM users ORDER BY created_at",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	for _, user := range users {
		groups, err := s.memberGroups(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		user.Groups = groups
	}
	return users, nil
}

// RenameUser updates the display name only; historical expenses reference
// the user by email and are untouched.
func (s *SQLiteStore) RenameUser(ctx context.Context, email, name string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET name = ? WHERE email = ?", name, email,
	)
	if err != nil {
		return fmt.Errorf("failed to rename user: %w", err)
	}
	return requireRow(res, fmt.Sprintf("user %s", email))
}

// SetPasswordHash stores the credential hash for a password account.
func (s *SQLiteStore) SetPasswordHash(ctx context.Context, email, hash string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE email = ?", hash, email,
	)
	if err != nil {
		return fmt.Errorf("failed to set password hash: %w", err)
	}
	return requireRow(res, fmt.Sprintf("user %s", email))
}

// memberGroups returns the names of the groups the email belongs to.
func (s *SQLiteStore) memberGroups(ctx context.Context, email string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_name FROM group_members WHERE email = ? ORDER BY group_name",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		groups = append(groups, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return groups, nil
}

// requireRow maps a zero-row update to ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

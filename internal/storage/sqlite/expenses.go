package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// AppendExpenses appends committed expenses to a group's ledger, assigning
// IDs and timestamps. Saved expenses are never edited in place.
func (s *SQLiteStore) AppendExpenses(ctx context.Context, groupName string, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

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

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position)+1, 0) FROM expenses WHERE group_name = ?",
		groupName,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to compute expense position: %w", err)
	}

	now := time.Now().Unix()
	for _, expense := range expenses {
		if expense.ID == "" {
			expense.ID = uuid.New().String()
		}
		if expense.CreatedAt == 0 {
			expense.CreatedAt = now
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO expenses (id, group_name, item, amount, payer, share, position, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			expense.ID, groupName, expense.Item, expense.Amount, expense.Payer, expense.Share, next, expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		next++

		for i, email := range expense.Assignees {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_assignees (expense_id, email, position) VALUES (?, ?, ?)",
				expense.ID, email, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert assignee: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpenses returns a group's expenses in commit order.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupName string) ([]*models.Expense, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM groups WHERE name = ?", groupName,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check group: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("group %s: %w", groupName, storage.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, item, amount, payer, share, created_at FROM expenses WHERE group_name = ? ORDER BY position",
		groupName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.Item, &expense.Amount, &expense.Payer, &expense.Share, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		assignees, err := s.expenseAssignees(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		expense.Assignees = assignees
	}
	return expenses, nil
}

func (s *SQLiteStore) expenseAssignees(ctx context.Context, expenseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT email FROM expense_assignees WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignees: %w", err)
	}
	defer rows.Close()

	var assignees []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		assignees = append(assignees, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignees: %w", err)
	}
	return assignees, nil
}

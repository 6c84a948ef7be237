package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidExpense is returned when expense data fails validation.
var ErrInvalidExpense = errors.New("invalid expense")

// Item is a single line parsed from a receipt: a label and a price.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Expense is one committed assignment of a receipt item. The payer and
// assignees are referenced by email so that renaming a user never rewrites
// expense history.
type Expense struct {
	ID        string   `json:"id"`
	Item      string   `json:"item"`
	Amount    float64  `json:"amount"`
	Payer     string   `json:"payer"`
	Assignees []string `json:"assignees"`
	Share     float64  `json:"share"`
	CreatedAt int64    `json:"created_at"`
}

// NewExpense creates a validated expense. ID and CreatedAt are assigned by
// the store when the expense is committed.
func NewExpense(item string, amount float64, payer string, assignees []string, share float64) (*Expense, error) {
	item = strings.TrimSpace(item)
	if item == "" {
		return nil, fmt.Errorf("%w: item name required", ErrInvalidExpense)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	payer = strings.ToLower(strings.TrimSpace(payer))
	if payer == "" {
		return nil, fmt.Errorf("%w: payer required", ErrInvalidExpense)
	}
	if len(assignees) == 0 {
		return nil, fmt.Errorf("%w: at least one assignee required", ErrInvalidExpense)
	}
	normalized := make([]string, len(assignees))
	seen := make(map[string]struct{}, len(assignees))
	for i, a := range assignees {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			return nil, fmt.Errorf("%w: empty assignee", ErrInvalidExpense)
		}
		if _, dup := seen[a]; dup {
			return nil, fmt.Errorf("%w: duplicate assignee %s", ErrInvalidExpense, a)
		}
		seen[a] = struct{}{}
		normalized[i] = a
	}
	return &Expense{
		Item:      item,
		Amount:    amount,
		Payer:     payer,
		Assignees: normalized,
		Share:     share,
	}, nil
}

// HasAssignee reports whether the given email is among the assignees.
func (e *Expense) HasAssignee(email string) bool {
	email = strings.ToLower(email)
	for _, a := range e.Assignees {
		if a == email {
			return true
		}
	}
	return false
}

// Involves reports whether the email is the payer or an assignee.
func (e *Expense) Involves(email string) bool {
	return strings.EqualFold(e.Payer, email) || e.HasAssignee(email)
}

// Timestamp returns CreatedAt as a time.Time.
func (e *Expense) Timestamp() time.Time {
	return time.Unix(e.CreatedAt, 0)
}

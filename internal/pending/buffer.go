// Package pending holds staged, not-yet-persisted expense assignments.
//
// The buffer is the volatile counterpart of the durable ledger: assignments
// land here while the user works through a receipt, and are merged into the
// store only on an explicit commit. Staged expenses are keyed by item label
// per group, so re-selecting assignees for an item overwrites its prior
// record instead of appending a duplicate.
package pending

import (
	"sync"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// Buffer stages pending expenses per group.
//
// Writers are expected to be a single interactive session per group;
// concurrent sessions on the same group get last-write-wins semantics.
type Buffer struct {
	mu     sync.Mutex
	groups map[string]map[string]*models.Expense // group name -> item label -> expense
	order  map[string][]string                   // group name -> item labels in first-staged order
}

// NewBuffer creates an empty staging buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		groups: make(map[string]map[string]*models.Expense),
		order:  make(map[string][]string),
	}
}

// Put stages an expense for the group, replacing any prior record with the
// same item label.
func (b *Buffer) Put(groupName string, expense *models.Expense) {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := b.groups[groupName]
	if staged == nil {
		staged = make(map[string]*models.Expense)
		b.groups[groupName] = staged
	}
	if _, exists := staged[expense.Item]; !exists {
		b.order[groupName] = append(b.order[groupName], expense.Item)
	}
	staged[expense.Item] = expense
}

// List returns the group's staged expenses in first-staged order.
func (b *Buffer) List(groupName string) []*models.Expense {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := b.groups[groupName]
	expenses := make([]*models.Expense, 0, len(staged))
	for _, label := range b.order[groupName] {
		if expense, ok := staged[label]; ok {
			expenses = append(expenses, expense)
		}
	}
	return expenses
}

// Drain returns the group's staged expenses in first-staged order and clears
// the buffer for that group. Used by commit.
func (b *Buffer) Drain(groupName string) []*models.Expense {
	b.mu.Lock()
	defer b.mu.Unlock()

	staged := b.groups[groupName]
	expenses := make([]*models.Expense, 0, len(staged))
	for _, label := range b.order[groupName] {
		if expense, ok := staged[label]; ok {
			expenses = append(expenses, expense)
		}
	}
	delete(b.groups, groupName)
	delete(b.order, groupName)
	return expenses
}

// Clear discards the group's staged expenses without committing them.
func (b *Buffer) Clear(groupName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.groups, groupName)
	delete(b.order, groupName)
}

// Len reports how many expenses are staged for the group.
func (b *Buffer) Len(groupName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.groups[groupName])
}

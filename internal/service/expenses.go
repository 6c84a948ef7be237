package service

import (
	"context"
	"log/slog"

	"github.com/sarankoundinya2000/smartsplit/internal/calculator"
	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/notify"
	"github.com/sarankoundinya2000/smartsplit/internal/pending"
	"github.com/sarankoundinya2000/smartsplit/internal/receipt"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// ExpenseService handles the receipt-to-settlement flow: parsing, staging
// assignments, committing, and reporting debts.
type ExpenseService struct {
	store   storage.Store
	pending *pending.Buffer
	parser  receipt.Parser
	sender  notify.Sender
	logger  *slog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(store storage.Store, parser receipt.Parser, sender notify.Sender, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{
		store:   store,
		pending: pending.NewBuffer(),
		parser:  parser,
		sender:  sender,
		logger:  logger,
	}
}

// CommitResult reports the outcome of a commit. Failures lists recipients
// whose summary email could not be delivered; the commit itself stands
// regardless.
type CommitResult struct {
	Expenses []*models.Expense       `json:"expenses"`
	Report   *calculator.DebtReport  `json:"report"`
	Failures []*notify.DeliveryError `json:"-"`
}

// ParseReceipt runs a receipt image through the vision parser. Only group
// members may upload receipts.
func (s *ExpenseService) ParseReceipt(ctx context.Context, groupName, requester string, image []byte, mimeType string) (*receipt.Receipt, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}

	parsed, err := s.parser.Parse(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("receipt parsed",
		"group", groupName,
		"items", len(parsed.Items),
		"total", parsed.Amount(),
	)
	return parsed, nil
}

// AssignItem stages an item assignment in the group's pending buffer.
// Re-assigning an item with the same label overwrites the staged entry.
func (s *ExpenseService) AssignItem(ctx context.Context, groupName, requester string, item models.Item, payer string, assignees []string) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}

	expense, err := calculator.Assign(item, payer, assignees, group)
	if err != nil {
		return nil, err
	}
	s.pending.Put(groupName, expense)
	s.logger.Info("item assigned",
		"group", groupName,
		"item", expense.Item,
		"payer", expense.Payer,
		"assignees", len(expense.Assignees),
		"share", expense.Share,
	)
	return expense, nil
}

// ListPending returns the staged assignments for a group in first-staged
// order.
func (s *ExpenseService) ListPending(ctx context.Context, groupName, requester string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}
	return s.pending.List(groupName), nil
}

// ClearPending discards all staged assignments for a group.
func (s *ExpenseService) ClearPending(ctx context.Context, groupName, requester string) error {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return err
	}
	if !group.HasMember(requester) {
		return ErrNotMember
	}
	s.pending.Clear(groupName)
	return nil
}

// Commit drains the pending buffer into the ledger, recomputes the group's
// debt report over its full history, and emails each member a summary of
// the committed batch. Email failures are reported in the result but do
// not roll back the commit.
func (s *ExpenseService) Commit(ctx context.Context, groupName, requester string) (*CommitResult, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}

	batch := s.pending.Drain(groupName)
	if len(batch) == 0 {
		return nil, ErrNoPending
	}
	if err := s.store.AppendExpenses(ctx, groupName, batch); err != nil {
		// The batch goes back so a transient store failure loses nothing.
		for _, e := range batch {
			s.pending.Put(groupName, e)
		}
		return nil, err
	}

	history, err := s.store.ListExpenses(ctx, groupName)
	if err != nil {
		return nil, err
	}
	report := calculator.ComputeDebts(history)

	resolve := func(email string) string { return resolveName(ctx, s.store, email) }
	failures := notify.DispatchAll(ctx, s.sender, s.logger, groupName, group.Members, batch, resolve)

	s.logger.Info("expenses committed",
		"group", groupName,
		"count", len(batch),
		"delivery_failures", len(failures),
	)
	return &CommitResult{Expenses: batch, Report: report, Failures: failures}, nil
}

// Debts computes the group's debt report over its committed history.
func (s *ExpenseService) Debts(ctx context.Context, groupName, requester string) (*calculator.DebtReport, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}
	expenses, err := s.store.ListExpenses(ctx, groupName)
	if err != nil {
		return nil, err
	}
	return calculator.ComputeDebts(expenses), nil
}

// Expenses returns the committed history for a group in commit order.
func (s *ExpenseService) Expenses(ctx context.Context, groupName, requester string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requester) {
		return nil, ErrNotMember
	}
	return s.store.ListExpenses(ctx, groupName)
}

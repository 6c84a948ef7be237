package calculator

import (
	"math"
	"testing"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

const (
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"
)

func expense(item string, amount float64, payer string, assignees []string) *models.Expense {
	share := RoundToCents(amount / float64(len(assignees)))
	return &models.Expense{
		Item:      item,
		Amount:    amount,
		Payer:     payer,
		Assignees: assignees,
		Share:     share,
	}
}

func TestComputeDebts(t *testing.T) {
	tests := []struct {
		name     string
		expenses []*models.Expense
		validate func(t *testing.T, report *DebtReport)
	}{
		{
			name: "payer among assignees owes nothing on own slice",
			expenses: []*models.Expense{
				expense("Dinner", 30.0, alice, []string{alice, bob, carol}),
			},
			validate: func(t *testing.T, report *DebtReport) {
				if _, ok := report.Debts[alice]; ok {
					t.Error("payer should not appear as debtor for their own expense")
				}
				if got := report.Debts[bob][alice]; got != 10.0 {
					t.Errorf("debt[bob][alice] = %v, want 10.0", got)
				}
				if got := report.Debts[carol][alice]; got != 10.0 {
					t.Errorf("debt[carol][alice] = %v, want 10.0", got)
				}
				// The payer's own share still counts toward their total owed.
				if got := report.Totals[alice].TotalOwed; got != 10.0 {
					t.Errorf("alice TotalOwed = %v, want 10.0", got)
				}
				if got := report.Totals[alice].TotalPaid; got != 30.0 {
					t.Errorf("alice TotalPaid = %v, want 30.0", got)
				}
			},
		},
		{
			name: "bidirectional debts are not netted",
			expenses: []*models.Expense{
				expense("Lunch", 10.0, bob, []string{alice}),
				expense("Coffee", 4.0, alice, []string{bob}),
			},
			validate: func(t *testing.T, report *DebtReport) {
				if got := report.Debts[alice][bob]; got != 10.0 {
					t.Errorf("debt[alice][bob] = %v, want 10.0", got)
				}
				if got := report.Debts[bob][alice]; got != 4.0 {
					t.Errorf("debt[bob][alice] = %v, want 4.0", got)
				}
			},
		},
		{
			name: "debts accumulate across expenses",
			expenses: []*models.Expense{
				expense("Breakfast", 8.0, alice, []string{bob}),
				expense("Taxi", 12.0, alice, []string{bob}),
			},
			validate: func(t *testing.T, report *DebtReport) {
				if got := report.Debts[bob][alice]; got != 20.0 {
					t.Errorf("debt[bob][alice] = %v, want 20.0", got)
				}
				if got := report.TotalOwedBy(bob); got != 20.0 {
					t.Errorf("TotalOwedBy(bob) = %v, want 20.0", got)
				}
			},
		},
		{
			name:     "empty expense list yields empty report",
			expenses: nil,
			validate: func(t *testing.T, report *DebtReport) {
				if len(report.Debts) != 0 || len(report.Totals) != 0 {
					t.Errorf("expected empty report, got %+v", report)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, ComputeDebts(tt.expenses))
		})
	}
}

// Accrual is pure addition over a commutative monoid: any permutation of the
// expense list must produce the same report within floating-point epsilon.
func TestComputeDebtsOrderIndependent(t *testing.T) {
	expenses := []*models.Expense{
		expense("Pizza", 20.0, alice, []string{alice, bob, carol}),
		expense("Beer", 9.0, bob, []string{alice, carol}),
		expense("Taxi", 12.5, carol, []string{alice, bob, carol}),
		expense("Snacks", 7.25, alice, []string{bob}),
	}

	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}

	base := ComputeDebts(expenses)
	for _, perm := range permutations {
		shuffled := make([]*models.Expense, len(expenses))
		for i, j := range perm {
			shuffled[i] = expenses[j]
		}
		report := ComputeDebts(shuffled)

		for debtor, creditors := range base.Debts {
			for creditor, amount := range creditors {
				if math.Abs(report.Debts[debtor][creditor]-amount) > 1e-9 {
					t.Errorf("permutation %v: debt[%s][%s] = %v, want %v",
						perm, debtor, creditor, report.Debts[debtor][creditor], amount)
				}
			}
		}
		for member, totals := range base.Totals {
			got := report.Totals[member]
			if math.Abs(got.TotalPaid-totals.TotalPaid) > 1e-9 ||
				math.Abs(got.TotalOwed-totals.TotalOwed) > 1e-9 {
				t.Errorf("permutation %v: totals[%s] = %+v, want %+v", perm, member, got, totals)
			}
		}
	}
}

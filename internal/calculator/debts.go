package calculator

import "github.com/sarankoundinya2000/smartsplit/internal/models"

// MemberTotals aggregates one member's position across all expenses.
type MemberTotals struct {
	// TotalPaid is the sum of amounts for expenses this member paid.
	TotalPaid float64

	// TotalOwed is the sum of this member's shares across every expense
	// they are assigned to, regardless of who paid.
	TotalOwed float64
}

// DebtReport is the output of ComputeDebts.
//
// Debts maps debtor email -> creditor email -> accumulated amount. Debts are
// reported in both directions without netting: if A owes B $5 from one
// expense and B owes A $3 from another, both entries appear. Collapsing them
// into a minimal settlement is a deliberately separate problem and is not
// performed here.
type DebtReport struct {
	Debts  map[string]map[string]float64
	Totals map[string]MemberTotals
}

// TotalOwedBy returns the debtor's total across all creditors.
func (r *DebtReport) TotalOwedBy(debtor string) float64 {
	var total float64
	for _, amount := range r.Debts[debtor] {
		total += amount
	}
	return total
}

// ComputeDebts folds a list of expenses into a debt matrix and per-member
// totals.
//
// For each expense, each assignee other than the payer accrues the expense's
// share into debts[assignee][payer]. A payer splitting with themself owes
// nothing on their own slice, but their share still counts toward their
// TotalOwed. Accrual is pure addition, so processing the expenses in any
// order yields the same report up to floating-point association.
func ComputeDebts(expenses []*models.Expense) *DebtReport {
	report := &DebtReport{
		Debts:  make(map[string]map[string]float64),
		Totals: make(map[string]MemberTotals),
	}

	for _, expense := range expenses {
		payer := report.Totals[expense.Payer]
		payer.TotalPaid += expense.Amount
		report.Totals[expense.Payer] = payer

		for _, assignee := range expense.Assignees {
			totals := report.Totals[assignee]
			totals.TotalOwed += expense.Share
			report.Totals[assignee] = totals

			if assignee == expense.Payer {
				continue
			}
			if report.Debts[assignee] == nil {
				report.Debts[assignee] = make(map[string]float64)
			}
			report.Debts[assignee][expense.Payer] += expense.Share
		}
	}

	return report
}

// Package calculator implements the expense-splitting core: turning a receipt
// item plus an assignment decision into an expense record, and folding a list
// of expenses into a debt matrix.
package calculator

import (
	"errors"
	"math"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// ErrInvalidAssignment is returned when an assignment names no assignees,
// lists the same assignee twice, or references someone who is not a current
// group member.
var ErrInvalidAssignment = errors.New("invalid assignment: assignees must be distinct current group members")

// RoundToCents rounds to 2 decimal places using half-up rounding.
//
// This is the single rounding rule for the whole ledger: a $20.00 item split
// three ways yields a $6.67 share for each assignee, and the residual $0.01
// is left unreconciled rather than assigned to anyone.
func RoundToCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Assign builds an expense from a parsed item, the payer, and the set of
// assignees splitting it.
//
// The payer and every assignee must be current members of the group; the
// assignees form a set, so they must be non-empty and distinct. The payer
// need not be among the assignees. Emails are compared case-insensitively.
// Each assignee's share is price / len(assignees), rounded half-up to cents.
// Assign only constructs the record; staging and persistence are separate
// explicit steps, and nothing is staged when validation fails.
func Assign(item models.Item, payer string, assignees []string, group *models.Group) (*models.Expense, error) {
	payer = strings.ToLower(strings.TrimSpace(payer))
	if len(assignees) == 0 || !group.HasMember(payer) {
		return nil, ErrInvalidAssignment
	}
	normalized := make([]string, 0, len(assignees))
	seen := make(map[string]struct{}, len(assignees))
	for _, a := range assignees {
		a = strings.ToLower(strings.TrimSpace(a))
		if !group.HasMember(a) {
			return nil, ErrInvalidAssignment
		}
		if _, dup := seen[a]; dup {
			return nil, ErrInvalidAssignment
		}
		seen[a] = struct{}{}
		normalized = append(normalized, a)
	}

	share := RoundToCents(item.Price / float64(len(normalized)))
	expense, err := models.NewExpense(item.Name, item.Price, payer, normalized, share)
	if err != nil {
		return nil, errors.Join(ErrInvalidAssignment, err)
	}
	return expense, nil
}

package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sarankoundinya2000/smartsplit/internal/calculator"
	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// NameResolver maps a member email to a display name. Resolvers fall back
// to the bare email for members no longer on record.
type NameResolver func(email string) string

// CounterpartyLine is one "X owes you" or "you owe X" entry.
type CounterpartyLine struct {
	Name   string
	Amount float64
}

// ExpenseRow is one row of the expense table, scoped to what the recipient
// is involved in.
type ExpenseRow struct {
	Item      string
	Amount    float64
	PayerName string
	YourShare float64
}

// Summary is the per-member view of a committed batch of expenses. Payers
// see what others owe them; assignees see what they owe.
type Summary struct {
	GroupName string
	Recipient string
	Date      string
	IsPayer   bool
	TotalPaid float64
	TotalOwed float64
	Lines     []CounterpartyLine
	Rows      []ExpenseRow
}

// BuildSummary computes the recipient's view of the expense batch. A member
// who paid for anything in the batch gets the payer framing.
func BuildSummary(groupName, recipient string, expenses []*models.Expense, resolve NameResolver) *Summary {
	recipient = strings.ToLower(recipient)
	s := &Summary{
		GroupName: groupName,
		Recipient: recipient,
		Date:      time.Now().Format("2006-01-02 15:04"),
	}

	for _, e := range expenses {
		if strings.EqualFold(e.Payer, recipient) {
			s.IsPayer = true
			s.TotalPaid += e.Amount
		}
		if e.HasAssignee(recipient) && !strings.EqualFold(e.Payer, recipient) {
			s.TotalOwed += e.Share
		}
	}
	s.TotalPaid = calculator.RoundToCents(s.TotalPaid)
	s.TotalOwed = calculator.RoundToCents(s.TotalOwed)

	// Per-counterparty totals, keyed by display name as the original app
	// presented them. Order follows first appearance in the batch.
	amounts := make(map[string]float64)
	var order []string
	add := func(name string, amount float64) {
		if _, ok := amounts[name]; !ok {
			order = append(order, name)
		}
		amounts[name] += amount
	}
	for _, e := range expenses {
		if s.IsPayer {
			if !strings.EqualFold(e.Payer, recipient) {
				continue
			}
			for _, assignee := range e.Assignees {
				if !strings.EqualFold(assignee, recipient) {
					add(resolve(assignee), e.Share)
				}
			}
		} else if e.HasAssignee(recipient) && !strings.EqualFold(e.Payer, recipient) {
			add(resolve(e.Payer), e.Share)
		}
	}
	for _, name := range order {
		s.Lines = append(s.Lines, CounterpartyLine{Name: name, Amount: calculator.RoundToCents(amounts[name])})
	}

	for _, e := range expenses {
		if !e.Involves(recipient) {
			continue
		}
		row := ExpenseRow{
			Item:      e.Item,
			Amount:    e.Amount,
			PayerName: resolve(e.Payer),
			YourShare: e.Amount,
		}
		if e.HasAssignee(recipient) {
			row.YourShare = e.Share
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

var summaryTemplate = template.Must(template.New("summary").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
}).Parse(`<html>
<body>
<h2>Expense Summary for {{.GroupName}}</h2>
<p><strong>Date:</strong> {{.Date}}</p>
{{if .IsPayer}}<h3>You paid a total of: {{money .TotalPaid}}</h3>
<p>Here's what others owe you:</p>
<ul>
{{range .Lines}}<li><strong>{{.Name}}</strong> owes you: {{money .Amount}}</li>
{{end}}</ul>
{{else}}<h3>Your Share: {{money .TotalOwed}}</h3>
<p>Here's what you owe to others:</p>
<ul>
{{range .Lines}}<li>You owe <strong>{{.Name}}</strong>: {{money .Amount}}</li>
{{end}}</ul>
{{end}}<h3>Expense Details:</h3>
<table border="1" cellpadding="5" style="border-collapse: collapse;">
<tr style="background-color: #f2f2f2;"><th>Item</th><th>Amount</th><th>Paid By</th><th>Your Share</th></tr>
{{range .Rows}}<tr><td>{{.Item}}</td><td>{{money .Amount}}</td><td>{{.PayerName}}</td><td>{{money .YourShare}}</td></tr>
{{end}}</table>
<br>
<p>Please settle your share of the expenses.</p>
</body>
</html>`))

// RenderHTML renders the summary email body.
func (s *Summary) RenderHTML() (string, error) {
	var buf strings.Builder
	if err := summaryTemplate.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the email subject line for the summary.
func (s *Summary) Subject() string {
	return fmt.Sprintf("Expense Summary for %s", s.GroupName)
}

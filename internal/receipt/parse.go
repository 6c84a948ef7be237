// Package receipt turns a photographed receipt into a list of priced items.
//
// Parsing is delegated to a hosted vision model; this package owns the prompt
// contract and a tolerant line-oriented parser for the model's response. The
// response grammar is three optional labeled sections (ITEMS, TAXES, TOTALS)
// where each line is `label: $amount`. Unparseable lines are skipped, never
// fatal. A stated grand total is preferred over the sum of parsed item
// prices: item prices are rescaled proportionally to match it.
package receipt

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/calculator"
	"github.com/sarankoundinya2000/smartsplit/internal/models"
)

// ErrParseIncomplete is returned when no items could be extracted from the
// model response. No partial result is accepted; the caller may retry with a
// clearer image.
var ErrParseIncomplete = errors.New("receipt parse incomplete: no items extracted")

// Receipt is the structured result of parsing one receipt image.
type Receipt struct {
	// Items are the extracted lines, prices rescaled to the stated total.
	Items []models.Item `json:"items"`

	// Taxes are the labeled tax lines as stated on the receipt.
	Taxes map[string]float64 `json:"taxes,omitempty"`

	// Subtotal and Total are the stated figures, zero when absent.
	Subtotal float64 `json:"subtotal"`
	Total    float64 `json:"total"`
}

// Amount is the figure expenses should sum to: the stated total when
// present, otherwise the stated subtotal, otherwise the sum of item prices.
func (r *Receipt) Amount() float64 {
	if r.Total > 0 {
		return r.Total
	}
	if r.Subtotal > 0 {
		return r.Subtotal
	}
	var sum float64
	for _, item := range r.Items {
		sum += item.Price
	}
	return sum
}

// ParseResponse parses the model's sectioned-text response.
//
// Section headers switch the current section; `label: $amount` lines are
// collected under it. Lines outside any section, lines without a colon or a
// parseable amount, and unknown sections are skipped. Missing sections are
// tolerated. Returns ErrParseIncomplete when no items survive.
func ParseResponse(text string) (*Receipt, error) {
	receipt := &Receipt{Taxes: make(map[string]float64)}

	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch strings.ToUpper(strings.TrimSuffix(line, ":")) {
		case "ITEMS", "TAXES", "TOTALS":
			if strings.HasSuffix(line, ":") {
				section = strings.ToUpper(strings.TrimSuffix(line, ":"))
				continue
			}
		}

		label, amount, ok := parseAmountLine(line)
		if !ok {
			continue
		}

		switch section {
		case "ITEMS":
			receipt.Items = append(receipt.Items, models.Item{Name: label, Price: amount})
		case "TAXES":
			receipt.Taxes[label] = amount
		case "TOTALS":
			switch {
			case strings.Contains(strings.ToLower(label), "subtotal"):
				receipt.Subtotal = amount
			case strings.Contains(strings.ToLower(label), "total"):
				receipt.Total = amount
			}
		}
	}

	if len(receipt.Items) == 0 {
		return nil, ErrParseIncomplete
	}

	rescaleItems(receipt)
	return receipt, nil
}

// parseAmountLine splits a `label: $amount` line. The dollar sign is
// optional; thousands separators are tolerated. Returns ok=false for
// anything that does not yield a positive amount.
func parseAmountLine(line string) (label string, amount float64, ok bool) {
	idx := strings.LastIndex(line, ":")
	if idx <= 0 {
		return "", 0, false
	}
	label = strings.TrimSpace(strings.TrimPrefix(line[:idx], "-"))
	raw := strings.TrimSpace(line[idx+1:])
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	if label == "" || raw == "" {
		return "", 0, false
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount <= 0 {
		return "", 0, false
	}
	return label, amount, true
}

// rescaleItems multiplies each item price by amount/itemsTotal so the items
// sum to the stated figure, rounding each to cents. Model-read item prices
// routinely omit tax or misread digits; the stated total is authoritative.
func rescaleItems(receipt *Receipt) {
	target := receipt.Amount()
	if target <= 0 {
		return
	}
	var itemsTotal float64
	for _, item := range receipt.Items {
		itemsTotal += item.Price
	}
	if itemsTotal <= 0 {
		return
	}
	ratio := target / itemsTotal
	for i := range receipt.Items {
		receipt.Items[i].Price = calculator.RoundToCents(receipt.Items[i].Price * ratio)
	}
}

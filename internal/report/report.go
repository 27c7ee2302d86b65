// Package report aggregates ledger entries into totals, category
// breakdowns and pie chart slices.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
)

// ErrNoData is returned when there is nothing to report on.
var ErrNoData = errors.New("no expense data")

// Summarize walks the entries once, keeping a running total and a subtotal
// per category. Categories are grouped by their exact label, in first-seen order.
func Summarize(entries []core.Entry) core.Summary {
	s := core.Summary{Count: len(entries), Total: decimal.Zero}
	pos := make(map[string]int)
	for _, e := range entries {
		s.Total = s.Total.Add(e.Amount)
		i, ok := pos[e.Category]
		if !ok {
			i = len(s.ByCategory)
			pos[e.Category] = i
			s.ByCategory = append(s.ByCategory, core.CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(e.Amount)
	}
	return s
}

// CategoryTotal sums the entries whose category matches, ignoring case.
// It returns the subtotal and how many entries matched.
func CategoryTotal(entries []core.Entry, category string) (decimal.Decimal, int) {
	category = strings.TrimSpace(category)
	total := decimal.Zero
	n := 0
	for _, e := range entries {
		if strings.EqualFold(e.Category, category) {
			total = total.Add(e.Amount)
			n++
		}
	}
	return total, n
}

// Categories lists the distinct category labels in first-seen order.
func Categories(entries []core.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Slice is one wedge of the pie chart.
type Slice struct {
	Name    string
	Amount  decimal.Decimal
	Percent float64
	Label   string
}

// PieSlices turns a summary into chart wedges. Percentages are shares of
// the total; a zero or negative total has no meaningful pie and yields nil.
func PieSlices(s core.Summary) []Slice {
	if !s.Total.IsPositive() {
		return nil
	}
	out := make([]Slice, 0, len(s.ByCategory))
	for _, c := range s.ByCategory {
		pct, _ := c.Amount.Div(s.Total).Mul(decimal.NewFromInt(100)).Float64()
		out = append(out, Slice{
			Name:    c.Name,
			Amount:  c.Amount,
			Percent: pct,
			Label:   fmt.Sprintf("%1.1f%%", pct),
		})
	}
	return out
}

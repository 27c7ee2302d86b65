// Package console is the numbered text menu over a ledger.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
	"ledgerbook/internal/report"
	"ledgerbook/internal/services"
)

const menuText = `
====== PERSONAL EXPENSE TRACKER ======
1. Add Expense
2. View Expenses
3. Total Expense
4. Expense by Category
5. Exit
`

const ruleWidth = 60

// Menu runs the interactive loop. In and Out are usually stdin and stdout.
type Menu struct {
	In       io.Reader
	Out      io.Writer
	Service  *services.LedgerService
	Now      func() time.Time
	Currency string

	lines <-chan string
	errc  <-chan error
}

// Run shows the menu until the user exits, input ends or ctx is cancelled.
// Exit and end of input return nil; cancellation returns ctx.Err().
func (m *Menu) Run(ctx context.Context) error {
	if m.Now == nil {
		m.Now = time.Now
	}
	if m.Currency == "" {
		m.Currency = core.DefaultCurrencySymbol
	}
	done := make(chan struct{})
	defer close(done)
	m.startReader(done)

	for {
		fmt.Fprint(m.Out, menuText)
		choice, err := m.prompt(ctx, "Choose an option: ")
		if err != nil {
			return endOfInput(err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = m.addExpense(ctx)
		case "2":
			m.viewExpenses(ctx)
		case "3":
			m.totalExpense(ctx)
		case "4":
			err = m.categoryExpense(ctx)
		case "5":
			fmt.Fprintln(m.Out, "Thank you!")
			return nil
		default:
			fmt.Fprintln(m.Out, "Invalid choice!")
		}
		if err != nil {
			return endOfInput(err)
		}
	}
}

func (m *Menu) addExpense(ctx context.Context) error {
	rawAmount, err := m.prompt(ctx, "Enter amount: "+m.Currency)
	if err != nil {
		return err
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		fmt.Fprintf(m.Out, "Invalid amount: %s\n", strings.TrimSpace(rawAmount))
		return nil
	}

	category, err := m.prompt(ctx, "Enter category (Food, Travel, Bills, etc.): ")
	if err != nil {
		return err
	}
	description, err := m.prompt(ctx, "Enter description: ")
	if err != nil {
		return err
	}

	e := core.Entry{
		Date:        m.Now().Format(core.StampLayout),
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
	}
	hint, hasHint := core.SuggestCategory(e.Category, m.knownCategories(ctx))

	if _, err := m.Service.Add(ctx, e); err != nil {
		if errors.Is(err, ledger.ErrInvalidField) {
			fmt.Fprintln(m.Out, "Could not save expense: fields cannot contain commas or line breaks.")
		} else {
			fmt.Fprintf(m.Out, "Could not save expense: %v\n", err)
		}
		slog.WarnContext(ctx, "Expense not added", "error", err, "category", e.Category)
		return nil
	}

	fmt.Fprintln(m.Out, "Expense added successfully!")
	if hasHint {
		fmt.Fprintf(m.Out, "Note: %q is a new category. Did you mean %q?\n", e.Category, hint)
	}
	return nil
}

func (m *Menu) viewExpenses(ctx context.Context) {
	entries, ok := m.entries(ctx)
	if !ok {
		return
	}
	fmt.Fprintln(m.Out, "\nDate | Amount | Category | Description")
	fmt.Fprintln(m.Out, strings.Repeat("-", ruleWidth))
	for _, e := range entries {
		fmt.Fprintf(m.Out, "%s | %s%s | %s | %s\n", e.Date, m.Currency, e.Amount.String(), e.Category, e.Description)
	}
}

func (m *Menu) totalExpense(ctx context.Context) {
	entries, ok := m.entries(ctx)
	if !ok {
		return
	}
	fmt.Fprintf(m.Out, "\nTotal Expense: %s\n", m.money(report.Summarize(entries).Total))
}

func (m *Menu) categoryExpense(ctx context.Context) error {
	category, err := m.prompt(ctx, "Enter category: ")
	if err != nil {
		return err
	}
	category = strings.TrimSpace(category)

	total, _, err := m.Service.CategoryTotal(ctx, category)
	if err != nil {
		m.reportReadError(ctx, err)
		return nil
	}
	fmt.Fprintf(m.Out, "\nTotal expense for %s: %s\n", category, m.money(total))
	return nil
}

// entries reads the ledger, printing the user-facing message when it cannot.
func (m *Menu) entries(ctx context.Context) ([]core.Entry, bool) {
	entries, err := m.Service.List(ctx)
	if err != nil {
		m.reportReadError(ctx, err)
		return nil, false
	}
	return entries, true
}

func (m *Menu) reportReadError(ctx context.Context, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		fmt.Fprintln(m.Out, "No expenses found.")
		return
	}
	slog.WarnContext(ctx, "Failed to read expenses", "error", err)
	fmt.Fprintf(m.Out, "Could not read expenses: %v\n", err)
}

// knownCategories is the default list plus whatever the ledger already uses.
func (m *Menu) knownCategories(ctx context.Context) []string {
	known := append([]string(nil), core.DefaultCategories...)
	entries, err := m.Service.List(ctx)
	if err != nil {
		return known
	}
	return append(known, report.Categories(entries)...)
}

func (m *Menu) money(d decimal.Decimal) string {
	return m.Currency + d.StringFixed(2)
}

// startReader feeds input lines to Run so that a blocked read does not
// keep the loop from seeing cancellation.
func (m *Menu) startReader(done <-chan struct{}) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(m.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		errc <- sc.Err()
	}()
	m.lines, m.errc = lines, errc
}

func (m *Menu) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprint(m.Out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-m.lines:
		if !ok {
			fmt.Fprintln(m.Out)
			if err := <-m.errc; err != nil {
				return "", fmt.Errorf("read input: %w", err)
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

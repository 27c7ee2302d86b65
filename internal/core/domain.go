package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// FormDateLayout is how the form front end stores dates (dd-mm-yyyy).
	FormDateLayout = "02-01-2006"
	// StampLayout is how the console front end stamps new entries.
	StampLayout = "2006-01-02 15:04:05"
)

// DefaultCategories is the suggestion list offered by the form. It is never enforced.
var DefaultCategories = []string{
	"Food", "Transport", "Shopping", "Bills", "Groceries",
	"Entertainment", "Medicine", "Education", "EMI", "Other",
}

type (
	// Entry is one recorded expense. Its position in the ledger is its only identity.
	Entry struct {
		Date        string
		Amount      decimal.Decimal
		Category    string
		Description string
	}

	// CategoryAmount represents an amount aggregated by category name.
	CategoryAmount struct {
		Name   string
		Amount decimal.Decimal
	}

	// Summary is the result of one pass over the ledger.
	Summary struct {
		Count      int
		Total      decimal.Decimal
		ByCategory []CategoryAmount
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingField  = errors.New("all fields are required")
)

// NewEntry parses rawAmount and builds an entry. Only the amount is checked.
func NewEntry(date, rawAmount, category, description string) (Entry, error) {
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Date:        strings.TrimSpace(date),
		Amount:      amount,
		Category:    strings.TrimSpace(category),
		Description: strings.TrimSpace(description),
	}, nil
}

// ValidateForm applies the form rule: amount, category and description are required.
// It runs before amount parsing so that an empty form reports the missing field.
func ValidateForm(rawAmount, category, description string) error {
	if strings.TrimSpace(rawAmount) == "" ||
		strings.TrimSpace(category) == "" ||
		strings.TrimSpace(description) == "" {
		return ErrMissingField
	}
	return nil
}

// Equal reports whether two entries hold the same values.
func (e Entry) Equal(o Entry) bool {
	return e.Date == o.Date &&
		e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Description == o.Description
}

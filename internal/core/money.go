// Package core provides amount parsing and formatting utilities.
//
// Amounts are decimals so that totals and per-category subtotals add up
// exactly, whatever the user typed.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencySymbol is shown in front of every amount.
const DefaultCurrencySymbol = "₹"

// ParseAmount converts user input into a decimal amount.
//
// It accepts a dot (12.34) or, when no dot is present, a comma (12,34) as the
// decimal separator, plus exponent notation. Sign and range are not checked.
//
// Examples:
//
//	ParseAmount("100")   -> 100
//	ParseAmount("12,50") -> 12.5
//	ParseAmount("-3")    -> -3
//	ParseAmount("abc")   -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with the currency symbol and two decimals, e.g. "₹ 12.50".
func FormatAmount(symbol string, amount decimal.Decimal) string {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return symbol + " " + amount.StringFixed(2)
}

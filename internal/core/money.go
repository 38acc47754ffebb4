// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal so that budget arithmetic never
// accumulates floating point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and a
// leading currency sign. Signed values, zero and garbage are rejected with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("$20")   -> 20, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount the way narration speaks it: "$20", "$12.5".
func FormatAmount(d decimal.Decimal) string {
	return "$" + d.String()
}

// FormatAmountFixed renders an amount with exactly two decimals: "$80.00".
func FormatAmountFixed(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

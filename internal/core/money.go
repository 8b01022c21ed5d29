// Package core provides amount parsing and formatting utilities.
//
// The store keeps amounts as REAL columns, so the domain carries them as
// float64. Parsing and display go through shopspring/decimal so that user
// input like "150.50" or "150,5" is read exactly and shown with two decimals.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user input into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps
// the precision given; rounding to cents happens only for display. Zero,
// negative and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.345, nil
//	ParseAmount("0.004")  -> 0.004, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	return f, nil
}

// FormatAmount renders an amount with exactly two decimals for display.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RoundAmount rounds v to cents. Sums of REAL columns accumulate binary
// noise (0.1+0.2), so aggregate views are rounded before display or export.
func RoundAmount(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

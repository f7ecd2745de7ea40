// Package core holds the sales record model, the entry form and the
// period kinds used to slice records for reporting.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidNumber = errors.New("invalid number")

// ParseDecimal reads a non-negative amount or quantity typed into a form.
//
// Blank input is zero. A single comma is treated as the decimal separator
// ("12,5"); otherwise commas are thousands separators ("1,400.00").
// Negative values are rejected.
//
// Examples:
//
//	ParseDecimal("1,400.00") -> 1400
//	ParseDecimal("2,5")      -> 2.5
//	ParseDecimal("")         -> 0
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "₱"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") && !looksLikeThousands(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidNumber
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidNumber
	}
	return d, nil
}

// looksLikeThousands reports "1,400" style input: exactly three digits after
// the only comma.
func looksLikeThousands(s string) bool {
	i := strings.IndexByte(s, ',')
	return i > 0 && len(s)-i-1 == 3
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

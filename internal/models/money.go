package models

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DollarsToCents converts a dollar amount to integer cents, rounding half
// away from zero at the cent boundary.
func DollarsToCents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(hundred).Round(0).IntPart()
}

// CentsToDollars converts integer cents to a dollar amount.
func CentsToDollars(cents int64) float64 {
	f, _ := decimal.New(cents, -2).Float64()
	return f
}

// FormatCents renders cents as a fixed two-decimal string, e.g. "-45.00".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// AbsCents returns the absolute value of cents, saturating at
// math.MaxInt64 for math.MinInt64.
func AbsCents(cents int64) int64 {
	if cents == math.MinInt64 {
		return math.MaxInt64
	}
	if cents < 0 {
		return -cents
	}
	return cents
}

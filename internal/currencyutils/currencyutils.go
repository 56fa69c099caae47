// Package currencyutils turns the amount notations found in bank exports into
// signed integer cents.
package currencyutils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned for a blank amount cell.
var ErrEmptyAmount = errors.New("amount is empty")

var (
	currencyMarks = regexp.MustCompile(`(?i)usd|eur|gbp|chf|cad|[€$£¥₣₤₧₹₺₽₩฿₫₲₴₸₼₪\s]`)
	plainNumber   = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)
	hundred       = decimal.NewFromInt(100)
	maxCents      = decimal.NewFromInt(math.MaxInt64)
)

// Amount is a parsed amount cell.
type Amount struct {
	Cents int64

	// ExplicitSign is true when the cell carried its own sign: a leading or
	// trailing minus, a leading plus, parentheses, or a CR/DR marker.
	ExplicitSign bool
}

// ParseCents parses an amount cell such as "$1,234.56", "(45.00)", "45.00-",
// "1.234,56 EUR" or "12.00 CR" into signed cents. Values with more than two
// decimals are rounded half away from zero. Magnitudes that do not fit in
// int64 cents are rejected, so the result is never math.MinInt64.
func ParseCents(raw string) (Amount, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Amount{}, ErrEmptyAmount
	}

	negative, explicit := false, false

	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "CR"):
		s, explicit = s[:len(s)-2], true
	case strings.HasSuffix(upper, "DR"):
		s, explicit, negative = s[:len(s)-2], true, true
	}
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s, explicit, negative = s[1:len(s)-1], true, true
	}

	s = currencyMarks.ReplaceAllString(s, "")

	switch {
	case strings.HasPrefix(s, "-"):
		s, explicit, negative = s[1:], true, true
	case strings.HasPrefix(s, "+"):
		s, explicit = s[1:], true
	case strings.HasSuffix(s, "-"):
		s, explicit, negative = s[:len(s)-1], true, true
	}

	s = StandardizeAmount(s)
	if !plainNumber.MatchString(s) {
		return Amount{}, fmt.Errorf("amount %q is not a number", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount %q is not a number: %w", raw, err)
	}

	rounded := d.Mul(hundred).Round(0)
	if rounded.GreaterThan(maxCents) {
		return Amount{}, fmt.Errorf("amount %q is too large", raw)
	}
	cents := rounded.IntPart()
	if negative {
		cents = -cents
	}
	return Amount{Cents: cents, ExplicitSign: explicit}, nil
}

// StandardizeAmount removes thousands separators and normalizes the decimal
// separator to a dot. When both "," and "." appear, the rightmost one is the
// decimal separator. A lone comma followed by at most two digits is decimal.
func StandardizeAmount(s string) string {
	s = strings.ReplaceAll(s, "'", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

// FormatCents renders cents for display, e.g. "-$1,234.50".
func FormatCents(cents int64, symbol string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
	}
	whole := decimal.New(cents, -2).Abs().StringFixed(2)
	intPart, frac := whole[:len(whole)-3], whole[len(whole)-2:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s%s%s.%s", sign, symbol, b.String(), frac)
}

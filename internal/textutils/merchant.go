// Package textutils normalizes free-text fields from bank exports so they can
// be compared across files.
package textutils

import (
	"strings"
	"unicode"
)

// NormalizeMerchant lower-cases s, drops apostrophes, turns every other
// punctuation or symbol rune into a separator and collapses whitespace.
// "STARBUCKS #123" and "starbucks   123" both become "starbucks 123".
func NormalizeMerchant(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DerivePattern reduces a merchant to a reusable rule pattern: the normalized
// merchant with trailing tokens that contain digits removed, so store numbers
// and payment references do not fragment the rule set. At least one token is
// always kept.
func DerivePattern(merchant string) string {
	tokens := strings.Fields(NormalizeMerchant(merchant))
	for len(tokens) > 1 && hasDigit(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// NormalizeHeader prepares a CSV column name for alias comparison: byte order
// marks and surrounding quotes are dropped, case is folded and whitespace
// collapsed.
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.Trim(strings.TrimSpace(s), `"`)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

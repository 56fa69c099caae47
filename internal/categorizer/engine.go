// Package categorizer assigns categories to transactions from a user's learned
// merchant rules and updates those rules from the user's corrections.
package categorizer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/textutils"
)

// Result is the categorization of one merchant. A nil CategoryID means
// uncategorized, which is a valid outcome and not an error.
type Result struct {
	CategoryID *string
	Confidence *float64
	RuleID     string
	Pattern    string
}

// Categorized reports whether a rule matched.
func (r Result) Categorized() bool {
	return r.CategoryID != nil
}

type compiledRule struct {
	rule    models.CategorizationRule
	pattern string
	length  int
}

// RuleSet is a user's rules in match order: longest pattern first, then
// highest confidence, then most recently updated. Rule id breaks any
// remaining tie so the order never depends on the input order.
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet normalizes and sorts rules. Rules whose pattern normalizes to an
// empty string are dropped.
func NewRuleSet(rules []models.CategorizationRule) *RuleSet {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		pattern := textutils.NormalizeMerchant(r.Pattern)
		if pattern == "" {
			continue
		}
		compiled = append(compiled, compiledRule{
			rule:    r,
			pattern: pattern,
			length:  utf8.RuneCountInString(pattern),
		})
	}

	sort.Slice(compiled, func(i, j int) bool {
		a, b := compiled[i], compiled[j]
		if a.length != b.length {
			return a.length > b.length
		}
		if a.rule.Confidence != b.rule.Confidence {
			return a.rule.Confidence > b.rule.Confidence
		}
		if !a.rule.UpdatedAt.Equal(b.rule.UpdatedAt) {
			return a.rule.UpdatedAt.After(b.rule.UpdatedAt)
		}
		return a.rule.ID < b.rule.ID
	})
	return &RuleSet{rules: compiled}
}

// Len returns the number of usable rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Match returns the first rule, in match order, whose pattern is a substring
// of the normalized merchant.
func (s *RuleSet) Match(merchant string) Result {
	normalized := textutils.NormalizeMerchant(merchant)
	if normalized == "" {
		return Result{}
	}
	for _, c := range s.rules {
		if strings.Contains(normalized, c.pattern) {
			return Result{
				CategoryID: models.StringPtr(c.rule.CategoryID),
				Confidence: models.Float64Ptr(c.rule.Confidence),
				RuleID:     c.rule.ID,
				Pattern:    c.rule.Pattern,
			}
		}
	}
	return Result{}
}

// Categorize matches one merchant against rules.
func Categorize(merchant string, rules []models.CategorizationRule) Result {
	return NewRuleSet(rules).Match(merchant)
}

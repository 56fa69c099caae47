// Package dateutils parses bank export dates into ISO form and computes
// month boundaries for budgeting.
package dateutils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Go layouts for the date notations found in bank exports. Month and day
// accept one or two digits.
const (
	LayoutISO      = "2006-01-02"
	LayoutUS       = "1/2/2006"
	LayoutUSShort  = "1/2/06"
	LayoutDashDMY  = "2-1-2006"
	LayoutSlashDMY = "2/1/2006"
	LayoutDotDMY   = "2.1.2006"
	LayoutSlashYMD = "2006/1/2"
	LayoutMonthKey = "2006-01"
)

var patternLayouts = map[string]string{
	"YYYY-MM-DD": LayoutISO,
	"MM/DD/YYYY": LayoutUS,
	"MM/DD/YY":   LayoutUSShort,
	"DD-MM-YYYY": LayoutDashDMY,
	"DD/MM/YYYY": LayoutSlashDMY,
	"DD.MM.YYYY": LayoutDotDMY,
	"YYYY/MM/DD": LayoutSlashYMD,
}

var whitespace = regexp.MustCompile(`\s+`)

// PatternToLayout converts a human date pattern such as "MM/DD/YYYY" into a
// Go time layout.
func PatternToLayout(pattern string) (string, error) {
	layout, ok := patternLayouts[strings.ToUpper(strings.TrimSpace(pattern))]
	if !ok {
		return "", fmt.Errorf("unsupported date format %q (supported: %s)", pattern, strings.Join(SupportedPatterns(), ", "))
	}
	return layout, nil
}

// SupportedPatterns lists every pattern accepted by PatternToLayout.
func SupportedPatterns() []string {
	out := make([]string, 0, len(patternLayouts))
	for p := range patternLayouts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// CleanDateString trims the value and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseWithLayouts tries each layout in order and returns the first match and
// the layout that produced it. A trailing time-of-day component is ignored.
func ParseWithLayouts(value string, layouts []string) (time.Time, string, error) {
	value = CleanDateString(value)
	if value == "" {
		return time.Time{}, "", fmt.Errorf("date is empty")
	}

	candidates := []string{value}
	if i := strings.IndexAny(value, " T"); i > 0 {
		candidates = append(candidates, value[:i])
	}

	for _, candidate := range candidates {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t, layout, nil
			}
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date %q", value)
}

// RankLayouts returns layouts reordered so that those parsing every
// non-empty sample come first. Relative order is otherwise preserved.
func RankLayouts(samples []string, layouts []string) []string {
	score := make(map[string]int, len(layouts))
	for _, layout := range layouts {
		for _, s := range samples {
			s = CleanDateString(s)
			if s == "" {
				continue
			}
			if _, _, err := ParseWithLayouts(s, []string{layout}); err != nil {
				score[layout]++
			}
		}
	}

	out := make([]string, len(layouts))
	copy(out, layouts)
	sort.SliceStable(out, func(i, j int) bool {
		return score[out[i]] < score[out[j]]
	})
	return out
}

// ToISODate formats t as YYYY-MM-DD.
func ToISODate(t time.Time) string {
	return t.Format(LayoutISO)
}

// StartOfMonth returns the first day of t's month at midnight.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of t's month at midnight. Month ranges are
// inclusive of this day.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// ParseMonth accepts "YYYY-MM" or any ISO date and returns the first of that month in UTC.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(LayoutMonthKey, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(LayoutISO, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return StartOfMonth(t), nil
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(LayoutMonthKey)
}

package categorizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/budget-csv/internal/models"
)

func rule(id, pattern, category string, confidence float64, updated time.Time) models.CategorizationRule {
	return models.CategorizationRule{
		ID:         id,
		UserID:     "u1",
		Pattern:    pattern,
		CategoryID: category,
		Confidence: confidence,
		UpdatedAt:  updated,
	}
}

func TestRuleSet_Match(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		rules        []models.CategorizationRule
		merchant     string
		wantCategory string
		wantRule     string
	}{
		{
			name: "longest pattern wins over higher confidence",
			rules: []models.CategorizationRule{
				rule("a", "STAR", "cat_a", 95, base),
				rule("b", "STARBUCKS", "cat_b", 60, base),
			},
			merchant:     "STARBUCKS #123",
			wantCategory: "cat_b",
			wantRule:     "b",
		},
		{
			name: "shorter pattern still matches other merchants",
			rules: []models.CategorizationRule{
				rule("a", "STAR", "cat_a", 95, base),
				rule("b", "STARBUCKS", "cat_b", 60, base),
			},
			merchant:     "STAR MARKET",
			wantCategory: "cat_a",
			wantRule:     "a",
		},
		{
			name: "equal length resolved by confidence",
			rules: []models.CategorizationRule{
				rule("a", "uber", "cat_a", 70, base),
				rule("b", "UBER", "cat_b", 85, base),
			},
			merchant:     "Uber Trip",
			wantCategory: "cat_b",
			wantRule:     "b",
		},
		{
			name: "equal confidence resolved by most recent update",
			rules: []models.CategorizationRule{
				rule("a", "uber", "cat_a", 70, base),
				rule("b", "uber", "cat_b", 70, base.Add(time.Hour)),
			},
			merchant:     "UBER EATS",
			wantCategory: "cat_b",
			wantRule:     "b",
		},
		{
			name: "full tie resolved by rule id",
			rules: []models.CategorizationRule{
				rule("z", "uber", "cat_z", 70, base),
				rule("m", "uber", "cat_m", 70, base),
			},
			merchant:     "uber",
			wantCategory: "cat_m",
			wantRule:     "m",
		},
		{
			name: "case and punctuation insensitive",
			rules: []models.CategorizationRule{
				rule("a", "trader joes", "groceries", 80, base),
			},
			merchant:     "TRADER JOE'S #552",
			wantCategory: "groceries",
			wantRule:     "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRuleSet(tt.rules).Match(tt.merchant)
			require.True(t, got.Categorized())
			assert.Equal(t, tt.wantCategory, *got.CategoryID)
			assert.Equal(t, tt.wantRule, got.RuleID)
			require.NotNil(t, got.Confidence)
		})
	}
}

func TestRuleSet_NoMatch(t *testing.T) {
	set := NewRuleSet([]models.CategorizationRule{
		rule("a", "netflix", "subs", 90, time.Now()),
		rule("b", "   ", "junk", 90, time.Now()),
	})
	assert.Equal(t, 1, set.Len())

	got := set.Match("SPOTIFY USA")
	assert.False(t, got.Categorized())
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Confidence)

	assert.False(t, set.Match("").Categorized())
	assert.False(t, Categorize("anything", nil).Categorized())
}

func TestRuleSet_DeterministicRegardlessOfInputOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rules := []models.CategorizationRule{
		rule("1", "amazon", "shopping", 70, base),
		rule("2", "amazon prime", "subs", 70, base),
		rule("3", "amazon", "books", 70, base),
		rule("4", "prime", "video", 99, base),
	}
	reversed := make([]models.CategorizationRule, len(rules))
	for i := range rules {
		reversed[len(rules)-1-i] = rules[i]
	}

	for _, merchant := range []string{"AMAZON PRIME*1X2", "Amazon.com", "PRIME VIDEO"} {
		a := NewRuleSet(rules).Match(merchant)
		b := NewRuleSet(reversed).Match(merchant)
		assert.Equal(t, a.RuleID, b.RuleID, merchant)
	}

	got := NewRuleSet(rules).Match("AMAZON PRIME*1X2")
	assert.Equal(t, "2", got.RuleID)
	got = NewRuleSet(rules).Match("Amazon.com")
	assert.Equal(t, "1", got.RuleID, "equal rules fall back to id order")
}

func TestRuleSet_ResultIsACopy(t *testing.T) {
	rules := []models.CategorizationRule{rule("a", "shell", "fuel", 75, time.Now())}
	set := NewRuleSet(rules)
	got := set.Match("SHELL OIL 5741")
	require.True(t, got.Categorized())
	*got.CategoryID = "changed"
	*got.Confidence = 1

	again := set.Match("SHELL OIL 5741")
	assert.Equal(t, "fuel", *again.CategoryID)
	assert.Equal(t, 75.0, *again.Confidence)
}

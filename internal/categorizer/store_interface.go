package categorizer

import (
	"context"

	"fjacquet/budget-csv/internal/models"
)

// RuleStore persists a user's categorization rules. Rules are keyed by
// (user, pattern, category): UpsertRule creates or overwrites that rule.
// FetchUserRules makes no ordering promise.
type RuleStore interface {
	FetchUserRules(ctx context.Context, userID string) ([]models.CategorizationRule, error)
	UpsertRule(ctx context.Context, userID, pattern, categoryID string, confidence float64) error
	DeleteRule(ctx context.Context, ruleID string) error
}

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fjacquet/budget-csv/internal/models"
)

// FetchUserRules returns all of the user's rules ordered by pattern then
// category. Callers needing match order sort them themselves.
func (s *SQLiteStore) FetchUserRules(ctx context.Context, userID string) ([]models.CategorizationRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, pattern, category_id, confidence, created_at, updated_at
		FROM categorization_rules WHERE user_id = ? ORDER BY pattern, category_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.CategorizationRule
	for rows.Next() {
		var r models.CategorizationRule
		if err := rows.Scan(&r.ID, &r.UserID, &r.Pattern, &r.CategoryID, &r.Confidence, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return out, nil
}

// UpsertRule creates the (user, pattern, category) rule or overwrites its
// confidence.
func (s *SQLiteStore) UpsertRule(ctx context.Context, userID, pattern, categoryID string, confidence float64) error {
	if err := validateString(pattern, "pattern"); err != nil {
		return err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}
	if err := validateConfidence(confidence); err != nil {
		return err
	}

	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categorization_rules (id, user_id, pattern, category_id, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, pattern, category_id)
		DO UPDATE SET confidence = excluded.confidence, updated_at = excluded.updated_at`,
		uuid.NewString(), userID, pattern, categoryID, confidence, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert rule %q: %w", pattern, err)
	}
	return nil
}

// DeleteRule removes a rule by id. Deleting a missing rule is ErrNotFound.
func (s *SQLiteStore) DeleteRule(ctx context.Context, ruleID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", ruleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", ruleID, err)
	}
	if n == 0 {
		return fmt.Errorf("rule %s: %w", ruleID, ErrNotFound)
	}
	return nil
}

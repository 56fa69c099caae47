package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/models"
)

// UpsertBudget stores the budget for (user, category, month), replacing the
// amount of an existing one. Month is normalized to its first day.
func (s *SQLiteStore) UpsertBudget(ctx context.Context, userID, categoryID string, month time.Time, amountCents int64) (*models.Budget, error) {
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amountCents)
	}

	monthKey := dateutils.ToISODate(dateutils.StartOfMonth(month))
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category_id, month, amount_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month)
		DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = excluded.updated_at`,
		uuid.NewString(), userID, categoryID, monthKey, amountCents, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}

	budgets, err := s.queryBudgets(ctx,
		`SELECT id, user_id, category_id, month, amount_cents, created_at, updated_at
		FROM budgets WHERE user_id = ? AND category_id = ? AND month = ?`, userID, categoryID, monthKey)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, fmt.Errorf("budget %s/%s: %w", categoryID, monthKey, ErrNotFound)
	}
	return &budgets[0], nil
}

// ListBudgets returns the user's budgets for month ordered by category.
func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string, month time.Time) ([]models.Budget, error) {
	return s.queryBudgets(ctx,
		`SELECT id, user_id, category_id, month, amount_cents, created_at, updated_at
		FROM budgets WHERE user_id = ? AND month = ? ORDER BY category_id`,
		userID, dateutils.ToISODate(dateutils.StartOfMonth(month)))
}

func (s *SQLiteStore) queryBudgets(ctx context.Context, query string, args ...any) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Budget
	for rows.Next() {
		var (
			b     models.Budget
			month string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &month, &b.AmountCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		b.Month, err = time.Parse(models.ISODateLayout, month)
		if err != nil {
			return nil, fmt.Errorf("budget %s has invalid month %q: %w", b.ID, month, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return out, nil
}

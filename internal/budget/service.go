package budget

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
)

var (
	// ErrEmptyCategory is returned when a budget names no category.
	ErrEmptyCategory = errors.New("category id is required")
	// ErrNegativeAmount is returned for a budget below zero.
	ErrNegativeAmount = errors.New("budget amount must not be negative")
)

// BudgetStore persists budgets. UpsertBudget keeps one budget per
// (user, category, month); month is normalized to its first day.
type BudgetStore interface {
	UpsertBudget(ctx context.Context, userID, categoryID string, month time.Time, amountCents int64) (*models.Budget, error)
	ListBudgets(ctx context.Context, userID string, month time.Time) ([]models.Budget, error)
}

// Service manages budgets and reports their monthly status.
type Service struct {
	budgets    BudgetStore
	aggregator *Aggregator
	logger     logging.Logger
}

// NewService creates a Service.
func NewService(budgets BudgetStore, aggregator *Aggregator, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Service{budgets: budgets, aggregator: aggregator, logger: logger}
}

// SetBudget creates or replaces the user's budget for a category and month.
func (s *Service) SetBudget(ctx context.Context, userID, categoryID string, month time.Time, amountCents int64) (*models.Budget, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, ErrEmptyCategory
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeAmount, amountCents)
	}

	b, err := s.budgets.UpsertBudget(ctx, userID, categoryID, dateutils.StartOfMonth(month), amountCents)
	if err != nil {
		return nil, fmt.Errorf("failed to save budget: %w", err)
	}
	s.logger.Info("Budget saved",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCategory, categoryID),
		logging.F(logging.FieldMonth, dateutils.MonthKey(b.Month)))
	return b, nil
}

// MonthStatus aggregates every budget the user has for month.
func (s *Service) MonthStatus(ctx context.Context, userID string, month time.Time) ([]models.BudgetStatus, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID, dateutils.StartOfMonth(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return s.aggregator.Aggregate(ctx, budgets)
}

package models

import "time"

// Budget is a monthly spending limit for one category. At most one exists
// per (user, category, month).
type Budget struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CategoryID  string    `json:"category_id"`
	Month       time.Time `json:"month"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BudgetStatus is a budget with its computed spend. It is never persisted.
type BudgetStatus struct {
	Budget
	SpentCents     int64   `json:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	PercentageUsed float64 `json:"percentage_used"`

	// Degraded is set when the spend lookup failed and SpentCents was forced to 0.
	Degraded error `json:"-"`
}

// OverBudget reports whether spend exceeds the budget amount.
func (s BudgetStatus) OverBudget() bool {
	return s.RemainingCents < 0
}

// SpendEntry is the minimal projection of a transaction needed for budgeting.
type SpendEntry struct {
	AmountCents int64
	Type        TransactionType
}

// Package budget computes monthly spend against category budgets.
package budget

import (
	"github.com/shopspring/decimal"

	"fjacquet/budget-csv/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ComputeStatus derives the status of b from the category's transactions in
// the budget month. Only expenses count; spend is the sum of absolute
// amounts. Remaining may go negative. Percentage is 0 for a budget that is
// not positive.
func ComputeStatus(b models.Budget, entries []models.SpendEntry) models.BudgetStatus {
	var spent int64
	for _, e := range entries {
		if e.Type != models.TypeExpense {
			continue
		}
		spent += models.AbsCents(e.AmountCents)
	}

	status := models.BudgetStatus{
		Budget:         b,
		SpentCents:     spent,
		RemainingCents: b.AmountCents - spent,
	}
	status.PercentageUsed = PercentageUsed(spent, b.AmountCents)
	return status
}

// PercentageUsed returns spent as a percentage of amount, rounded to two
// decimals and never negative.
func PercentageUsed(spentCents, amountCents int64) float64 {
	if amountCents <= 0 || spentCents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(spentCents).
		Mul(hundred).
		Div(decimal.NewFromInt(amountCents)).
		Round(2)
	f, _ := pct.Float64()
	return f
}

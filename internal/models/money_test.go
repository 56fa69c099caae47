package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollarsCentsRoundTrip(t *testing.T) {
	amounts := []float64{0, 0.01, 0.1, 1, 12.34, -12.34, 19.99, 1234567.89, -0.05, 100.5}
	for _, a := range amounts {
		assert.InDelta(t, a, CentsToDollars(DollarsToCents(a)), 0.005, "amount %v", a)
	}
}

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		name    string
		dollars float64
		want    int64
	}{
		{"whole", 45, 4500},
		{"fraction", 12.34, 1234},
		{"negative", -45.5, -4550},
		{"float noise", 0.1 + 0.2, 30},
		{"half cent rounds away from zero", 0.125, 13},
		{"negative half cent", -0.125, -13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DollarsToCents(tt.dollars))
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "-45.00", FormatCents(-4500))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "1234.56", FormatCents(123456))
}

func TestAbsCents(t *testing.T) {
	assert.Equal(t, int64(4500), AbsCents(-4500))
	assert.Equal(t, int64(4500), AbsCents(4500))
	assert.Equal(t, int64(0), AbsCents(0))
	assert.Equal(t, int64(math.MaxInt64), AbsCents(math.MinInt64))
}

func TestTransactionTypeParsing(t *testing.T) {
	typ, ok := ParseTransactionType(" Expense ")
	assert.True(t, ok)
	assert.Equal(t, TypeExpense, typ)

	_, ok = ParseTransactionType("refund")
	assert.False(t, ok)
}

func TestNewTransaction(t *testing.T) {
	p := ParsedTransaction{Date: "2024-03-05", AmountCents: -1250, Merchant: "Coffee Shop", Type: TypeExpense}
	tx := NewTransaction("user-1", p, mustTime(t, "2024-03-06"))

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "user-1", tx.UserID)
	assert.Equal(t, p.Merchant, tx.Merchant)
	assert.Equal(t, p.AmountCents, tx.AmountCents)
	assert.False(t, tx.IsCategorized())
	assert.Equal(t, tx.CreatedAt, tx.UpdatedAt)
}

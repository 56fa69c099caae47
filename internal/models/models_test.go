package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(ISODateLayout, s)
	require.NoError(t, err)
	return tm
}

func TestParsedTransactionTime(t *testing.T) {
	p := ParsedTransaction{Date: "2024-02-29"}
	tm, err := p.Time()
	require.NoError(t, err)
	assert.Equal(t, time.February, tm.Month())
	assert.Equal(t, 29, tm.Day())
}

func TestBudgetStatusOverBudget(t *testing.T) {
	assert.True(t, BudgetStatus{RemainingCents: -1}.OverBudget())
	assert.False(t, BudgetStatus{RemainingCents: 0}.OverBudget())
}

func TestParseResultTallies(t *testing.T) {
	var r ParseResult
	r.AddTransaction(ParsedTransaction{Merchant: "a"})
	r.AddTransaction(ParsedTransaction{Merchant: "b"})
	r.AddError(nil)
	assert.Equal(t, 2, r.SuccessCount)
	assert.Equal(t, 1, r.ErrorCount)
	assert.Len(t, r.Transactions, 2)
}

func TestPointerHelpers(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", *StringPtr("x"))
	assert.Equal(t, 70.0, *Float64Ptr(70))
}

package csvparser

import (
	"bytes"
	"strings"
	"testing"

	"fjacquet/budget-csv/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTransactions(t *testing.T) {
	txns := []models.Transaction{
		{
			ID: "t1", Date: "2025-01-02", AmountCents: -450, Merchant: "Coffee, Inc",
			Type: models.TypeExpense, CategoryID: models.StringPtr("dining"), Confidence: models.Float64Ptr(79),
		},
		{
			ID: "t2", Date: "2025-01-03", AmountCents: 250000, Merchant: "Payroll",
			Description: models.StringPtr("January"), Type: models.TypeIncome, IsDuplicate: true,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactions(&buf, txns, ','))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,date,amount,merchant,description,transaction_type,category_id,confidence,is_duplicate", lines[0])
	assert.Equal(t, `t1,2025-01-02,-4.50,"Coffee, Inc",,expense,dining,79.0,false`, lines[1])

	var rows []ExportRow
	require.NoError(t, gocsv.UnmarshalCSV(newRawReader(&buf, ','), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Coffee, Inc", rows[0].Merchant)
	assert.Equal(t, "January", rows[1].Description)
	assert.True(t, rows[1].IsDuplicate)
}

func TestWriteTransactionsSemicolon(t *testing.T) {
	var buf bytes.Buffer
	txns := []models.Transaction{{ID: "t1", Date: "2025-01-02", AmountCents: 100, Merchant: "A", Type: models.TypeIncome}}
	require.NoError(t, WriteTransactions(&buf, txns, ';'))
	assert.True(t, strings.HasPrefix(buf.String(), "id;date;amount;"))
}

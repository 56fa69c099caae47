package csvparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"fjacquet/budget-csv/internal/models"

	"github.com/gocarina/gocsv"
)

// ExportRow is the CSV layout of an exported transaction.
type ExportRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	Merchant    string `csv:"merchant"`
	Description string `csv:"description"`
	Type        string `csv:"transaction_type"`
	CategoryID  string `csv:"category_id"`
	Confidence  string `csv:"confidence"`
	IsDuplicate bool   `csv:"is_duplicate"`
}

// ToExportRow flattens a transaction; amounts are rendered in dollars.
func ToExportRow(t models.Transaction) ExportRow {
	row := ExportRow{
		ID:          t.ID,
		Date:        t.Date,
		Amount:      models.FormatCents(t.AmountCents),
		Merchant:    t.Merchant,
		Type:        string(t.Type),
		IsDuplicate: t.IsDuplicate,
	}
	if t.Description != nil {
		row.Description = *t.Description
	}
	if t.IsCategorized() {
		row.CategoryID = *t.CategoryID
	}
	if t.Confidence != nil {
		row.Confidence = strconv.FormatFloat(*t.Confidence, 'f', 1, 64)
	}
	return row
}

// WriteTransactions writes transactions as CSV with a header row.
func WriteTransactions(w io.Writer, transactions []models.Transaction, delimiter rune) error {
	rows := make([]ExportRow, len(transactions))
	for i, t := range transactions {
		rows[i] = ToExportRow(t)
	}

	csvWriter := csv.NewWriter(w)
	if delimiter != 0 {
		csvWriter.Comma = delimiter
	}
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// Package csvparser turns raw bank CSV exports into normalized transactions.
// Failures on individual rows are collected in the result and never abort the
// file; only an unmappable header or unreadable input is fatal.
package csvparser

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"fjacquet/budget-csv/internal/currencyutils"
	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
	"fjacquet/budget-csv/internal/profile"
)

const (
	// DefaultChunkSize is the number of rows parsed between scheduler yields.
	DefaultChunkSize = 500

	sampleSize = 5

	// firstDataRow is the row number of the first data row when the header is
	// row 1 and no line is empty.
	firstDataRow = 2
)

// Parser applies a detected profile to CSV rows.
type Parser struct {
	detector  *profile.Detector
	chunkSize int
	logger    logging.Logger
}

// NewParser creates a Parser. A non-positive chunkSize uses DefaultChunkSize.
func NewParser(detector *profile.Detector, chunkSize int, logger logging.Logger) *Parser {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Parser{detector: detector, chunkSize: chunkSize, logger: logger}
}

// ParseReader reads, detects and parses a CSV input in one pass.
func (p *Parser) ParseReader(ctx context.Context, in io.Reader, delimiter rune) (*models.ParseResult, error) {
	table, err := ReadTable(in, delimiter)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, table)
}

// Parse detects the table's format and parses every data row.
func (p *Parser) Parse(ctx context.Context, table *Table) (*models.ParseResult, error) {
	sample := table.Rows
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	detection, err := p.detector.Detect(table.Header, sample)
	if err != nil {
		return nil, err
	}
	return p.ParseRows(ctx, detection, table)
}

// ParseRows parses the table's data rows with an existing detection. Rows
// are handled in chunks with a scheduler yield in between; cancelling ctx
// discards everything parsed so far.
func (p *Parser) ParseRows(ctx context.Context, detection *profile.Detection, table *Table) (*models.ParseResult, error) {
	start := time.Now()
	rows := table.Rows
	result := &models.ParseResult{DetectedFormat: detection.ProfileID()}

	for chunkStart := 0; chunkStart < len(rows); chunkStart += p.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunkEnd := min(chunkStart+p.chunkSize, len(rows))
		for i := chunkStart; i < chunkEnd; i++ {
			row := rows[i]
			if isBlank(row) {
				continue
			}
			result.TotalRows++

			tx, rowErr := parseRow(detection, row, table.Line(i))
			if rowErr != nil {
				p.logger.Debug("Skipping unparseable row",
					logging.F(logging.FieldRow, rowErr.Row),
					logging.F(logging.FieldColumn, rowErr.Column),
					logging.F("message", rowErr.Message))
				result.AddError(rowErr)
				continue
			}
			result.AddTransaction(tx)
		}

		runtime.Gosched()
	}

	p.logger.Info("Parsed CSV rows",
		logging.F(logging.FieldProfile, result.DetectedFormat),
		logging.F(logging.FieldCount, result.SuccessCount),
		logging.F("errors", result.ErrorCount),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return result, nil
}

func parseRow(det *profile.Detection, row []string, rowNum int) (models.ParsedTransaction, *parsererror.RowParseError) {
	fail := func(column, format string, args ...interface{}) (models.ParsedTransaction, *parsererror.RowParseError) {
		return models.ParsedTransaction{}, parsererror.NewRowParseError(rowNum, column, fmt.Sprintf(format, args...), row)
	}

	date, _, err := dateutils.ParseWithLayouts(cell(det, row, profile.FieldDate), det.DateLayouts)
	if err != nil {
		return fail(string(profile.FieldDate), "%v", err)
	}

	var (
		cents   int64
		txType  models.TransactionType
		message string
		column  string
	)
	if _, ok := det.Index(profile.FieldDebit); ok {
		cents, txType, column, message = debitCredit(det, row)
	} else {
		cents, txType, column, message = singleAmount(det, row)
	}
	if message != "" {
		return fail(column, "%s", message)
	}

	merchant := cell(det, row, profile.FieldMerchant)
	description := cell(det, row, profile.FieldDescription)
	if _, ok := det.Index(profile.FieldMerchant); !ok {
		merchant, description = description, ""
	}
	if merchant == "" {
		return fail(string(profile.FieldMerchant), "merchant is required")
	}

	if raw := cell(det, row, profile.FieldType); raw != "" {
		if resolved, ok := det.Profile.ResolveType(raw); ok {
			txType = resolved
		}
	}

	return models.ParsedTransaction{
		Date:        dateutils.ToISODate(date),
		AmountCents: signFor(txType, cents),
		Merchant:    merchant,
		Description: models.StringPtr(description),
		Type:        txType,
	}, nil
}

// singleAmount infers the type from the sign of one amount column. It returns
// a non-empty message on failure.
func singleAmount(det *profile.Detection, row []string) (int64, models.TransactionType, string, string) {
	column := string(profile.FieldAmount)
	amount, err := currencyutils.ParseCents(cell(det, row, profile.FieldAmount))
	if err != nil {
		return 0, "", column, err.Error()
	}

	cents := amount.Cents
	signed := amount.ExplicitSign
	if det.Profile.AmountSign == profile.SignInverted {
		cents, signed = -cents, true
	}

	switch {
	case cents < 0:
		return cents, models.TypeExpense, column, ""
	case cents > 0 && signed:
		return cents, models.TypeIncome, column, ""
	default:
		return cents, det.Profile.DefaultTypeOrIncome(), column, ""
	}
}

// debitCredit derives sign and type from which of the two columns is
// populated: debit is an expense, credit is income. A zero in one column is
// treated as empty.
func debitCredit(det *profile.Detection, row []string) (int64, models.TransactionType, string, string) {
	debitRaw := cell(det, row, profile.FieldDebit)
	creditRaw := cell(det, row, profile.FieldCredit)

	var debit, credit currencyutils.Amount
	var err error
	if debitRaw != "" {
		if debit, err = currencyutils.ParseCents(debitRaw); err != nil {
			return 0, "", string(profile.FieldDebit), err.Error()
		}
	}
	if creditRaw != "" {
		if credit, err = currencyutils.ParseCents(creditRaw); err != nil {
			return 0, "", string(profile.FieldCredit), err.Error()
		}
	}

	column := string(profile.FieldAmount)
	switch {
	case debit.Cents != 0 && credit.Cents != 0:
		return 0, "", column, "both debit and credit are populated"
	case debit.Cents != 0:
		return -models.AbsCents(debit.Cents), models.TypeExpense, column, ""
	case credit.Cents != 0:
		return models.AbsCents(credit.Cents), models.TypeIncome, column, ""
	case debitRaw == "" && creditRaw == "":
		return 0, "", column, "debit or credit amount is required"
	default:
		return 0, det.Profile.DefaultTypeOrIncome(), column, ""
	}
}

// signFor stores expenses as negative and income as positive cents.
// Transfers keep the sign found in the file.
func signFor(t models.TransactionType, cents int64) int64 {
	switch t {
	case models.TypeExpense:
		return -models.AbsCents(cents)
	case models.TypeIncome:
		return models.AbsCents(cents)
	default:
		return cents
	}
}

func cell(det *profile.Detection, row []string, field profile.Field) string {
	i, ok := det.Index(field)
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

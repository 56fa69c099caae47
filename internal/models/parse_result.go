package models

import "fjacquet/budget-csv/internal/parsererror"

// GenericProfileID is reported as the detected format when no declared bank
// profile matched the header.
const GenericProfileID = "generic"

// ParseResult is the outcome of parsing one file. Transactions and Errors are
// in row order.
type ParseResult struct {
	Transactions   []ParsedTransaction
	Errors         []*parsererror.RowParseError
	TotalRows      int
	SuccessCount   int
	ErrorCount     int
	DetectedFormat string
}

// AddError records a row-level failure.
func (r *ParseResult) AddError(err *parsererror.RowParseError) {
	r.Errors = append(r.Errors, err)
	r.ErrorCount++
}

// AddTransaction records a successfully parsed row.
func (r *ParseResult) AddTransaction(tx ParsedTransaction) {
	r.Transactions = append(r.Transactions, tx)
	r.SuccessCount++
}

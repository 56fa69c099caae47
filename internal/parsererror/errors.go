// Package parsererror defines the error taxonomy of the import pipeline:
// local row failures, fatal format failures and degraded lookups.
package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedFormat is matched by every *UnrecognizedFormatError.
var ErrUnrecognizedFormat = errors.New("unrecognized CSV format")

// RowParseError is a non-fatal failure on a single data row. Row is the
// physical 1-indexed row number with the header counted as row 1.
type RowParseError struct {
	Row     int
	Column  string
	Message string
	Raw     []string
}

func (e *RowParseError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d: column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowParseError builds a RowParseError with a copy of raw.
func NewRowParseError(row int, column, message string, raw []string) *RowParseError {
	var snapshot []string
	if raw != nil {
		snapshot = make([]string, len(raw))
		copy(snapshot, raw)
	}
	return &RowParseError{Row: row, Column: column, Message: message, Raw: snapshot}
}

// UnrecognizedFormatError is returned when no profile, not even the generic
// one, can map the header. It is fatal to the whole file.
type UnrecognizedFormatError struct {
	Header []string
	Reason string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("%s: %s (header: %s)", ErrUnrecognizedFormat, e.Reason, strings.Join(e.Header, ", "))
}

func (e *UnrecognizedFormatError) Is(target error) bool {
	return target == ErrUnrecognizedFormat
}

// DegradedKind names a lookup whose failure was absorbed.
type DegradedKind string

const (
	DuplicateLookupDegraded DegradedKind = "duplicate_lookup"
	RuleFetchDegraded       DegradedKind = "rule_fetch"
	SpendLookupDegraded     DegradedKind = "spend_lookup"
)

// DegradedError records a failed external lookup that the pipeline worked
// around instead of aborting.
type DegradedError struct {
	Kind DegradedKind
	Err  error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s degraded: %v", e.Kind, e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// Degraded wraps err as a DegradedError of kind.
func Degraded(kind DegradedKind, err error) *DegradedError {
	return &DegradedError{Kind: kind, Err: err}
}

// IsDegraded reports whether err carries a DegradedError of kind.
func IsDegraded(err error, kind DegradedKind) bool {
	var d *DegradedError
	return errors.As(err, &d) && d.Kind == kind
}

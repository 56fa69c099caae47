// Package store persists transactions, categorization rules and budgets.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/budget-csv/internal/models"
)

// Store errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidConfidence  = errors.New("confidence must be between 0 and 100")
)

func validateString(s, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateTransaction(t *models.Transaction) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	case t.UserID == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidTransaction)
	case strings.TrimSpace(t.Merchant) == "":
		return fmt.Errorf("%w: missing merchant", ErrInvalidTransaction)
	case !t.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	if _, err := time.Parse(models.ISODateLayout, t.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidTransaction, t.Date)
	}
	return nil
}

func validateConfidence(c float64) error {
	if c < 0 || c > 100 {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, c)
	}
	return nil
}

// TransactionFilter narrows ListTransactions. Zero dates leave that side
// open; both bounds are inclusive.
type TransactionFilter struct {
	From              time.Time
	To                time.Time
	IncludeDuplicates bool
}

func (f TransactionFilter) matches(t *models.Transaction) bool {
	if !f.IncludeDuplicates && t.IsDuplicate {
		return false
	}
	if !f.From.IsZero() && t.Date < f.From.Format(models.ISODateLayout) {
		return false
	}
	if !f.To.IsZero() && t.Date > f.To.Format(models.ISODateLayout) {
		return false
	}
	return true
}

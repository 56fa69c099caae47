// Package models defines the core data structures shared by the import,
// categorization and budgeting pipeline. Monetary values are always integer
// cents.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a transaction's effect on spending.
type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// ISODateLayout is the normalized date layout of every transaction.
const ISODateLayout = "2006-01-02"

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

// ParseTransactionType resolves a case-insensitive type name.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// ParsedTransaction is one normalized row produced by the CSV parser.
type ParsedTransaction struct {
	Date        string          `json:"date" yaml:"date"`
	AmountCents int64           `json:"amount_cents" yaml:"amount_cents"`
	Merchant    string          `json:"merchant" yaml:"merchant"`
	Description *string         `json:"description,omitempty" yaml:"description,omitempty"`
	Type        TransactionType `json:"transaction_type" yaml:"transaction_type"`
}

// Time returns the transaction date as a UTC time.
func (p ParsedTransaction) Time() (time.Time, error) {
	return time.Parse(ISODateLayout, p.Date)
}

// Transaction is a persisted transaction owned by a user.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Date          string          `json:"date"`
	AmountCents   int64           `json:"amount_cents"`
	Merchant      string          `json:"merchant"`
	Description   *string         `json:"description,omitempty"`
	Type          TransactionType `json:"transaction_type"`
	CategoryID    *string         `json:"category_id,omitempty"`
	Confidence    *float64        `json:"confidence,omitempty"`
	IsDuplicate   bool            `json:"is_duplicate"`
	DuplicateHash string          `json:"duplicate_hash"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewTransaction wraps a parsed row into a new persisted record with a fresh id.
func NewTransaction(userID string, p ParsedTransaction, now time.Time) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        p.Date,
		AmountCents: p.AmountCents,
		Merchant:    p.Merchant,
		Description: p.Description,
		Type:        p.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsCategorized reports whether a category has been assigned.
func (t Transaction) IsCategorized() bool {
	return t.CategoryID != nil && *t.CategoryID != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}

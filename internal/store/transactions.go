package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/budget-csv/internal/dedup"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
)

const transactionColumns = `id, user_id, date, amount_cents, merchant, description, transaction_type,
	category_id, confidence, is_duplicate, duplicate_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (*models.Transaction, error) {
	var (
		t           models.Transaction
		description sql.NullString
		category    sql.NullString
		confidence  sql.NullFloat64
		txType      string
	)
	err := r.Scan(&t.ID, &t.UserID, &t.Date, &t.AmountCents, &t.Merchant, &description, &txType,
		&category, &confidence, &t.IsDuplicate, &t.DuplicateHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(txType)
	if description.Valid {
		t.Description = &description.String
	}
	if category.Valid {
		t.CategoryID = &category.String
	}
	if confidence.Valid {
		t.Confidence = &confidence.Float64
	}
	return &t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// SaveTransactions inserts transactions in one database transaction; either
// all are stored or none.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, transactions []models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range transactions {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.UserID, t.Date, t.AmountCents, t.Merchant, nullString(t.Description), string(t.Type),
			nullString(t.CategoryID), nullFloat(t.Confidence), t.IsDuplicate, t.DuplicateHash,
			t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	s.logger.Debug("Saved transactions", logging.F(logging.FieldCount, len(transactions)))
	return nil
}

// GetTransaction returns one of the user's transactions or ErrNotFound.
func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransactionCategory sets the category and confidence of a stored
// transaction.
func (s *SQLiteStore) UpdateTransactionCategory(ctx context.Context, userID, id, categoryID string, confidence float64) error {
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}
	if err := validateConfidence(confidence); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, confidence = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		categoryID, confidence, s.now(), userID, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListUncategorized returns the user's transactions without a category,
// oldest first.
func (s *SQLiteStore) ListUncategorized(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND category_id IS NULL ORDER BY date, created_at, id`, userID)
}

// ListTransactions returns the user's transactions matching filter, oldest
// first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.From.Format(models.ISODateLayout))
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.To.Format(models.ISODateLayout))
	}
	if !filter.IncludeDuplicates {
		where = append(where, "is_duplicate = 0")
	}
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE `+strings.Join(where, " AND ")+
			` ORDER BY date, created_at, id`, args...)
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

// FetchExistingDuplicateKeys maps each stored canonical key within scope to
// the id of the earliest stored transaction carrying it.
func (s *SQLiteStore) FetchExistingDuplicateKeys(ctx context.Context, userID string, scope dedup.Scope) (map[string]string, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !scope.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, scope.From.Format(models.ISODateLayout))
	}
	if !scope.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, scope.To.Format(models.ISODateLayout))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT duplicate_hash, id FROM transactions WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]string)
	for rows.Next() {
		var key, id string
		if err := rows.Scan(&key, &id); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate key: %w", err)
		}
		if _, seen := keys[key]; !seen {
			keys[key] = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duplicate keys: %w", err)
	}
	return keys, nil
}

// FetchCategoryTransactions returns the amounts and types of the user's
// non-duplicate transactions in a category between two dates, inclusive.
func (s *SQLiteStore) FetchCategoryTransactions(ctx context.Context, userID, categoryID string, monthStart, monthEnd time.Time) ([]models.SpendEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT amount_cents, transaction_type FROM transactions
		WHERE user_id = ? AND category_id = ? AND date >= ? AND date <= ? AND is_duplicate = 0`,
		userID, categoryID, monthStart.Format(models.ISODateLayout), monthEnd.Format(models.ISODateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query category spend: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.SpendEntry
	for rows.Next() {
		var (
			e      models.SpendEntry
			txType string
		)
		if err := rows.Scan(&e.AmountCents, &txType); err != nil {
			return nil, fmt.Errorf("failed to scan spend entry: %w", err)
		}
		e.Type = models.TransactionType(txType)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spend entries: %w", err)
	}
	return out, nil
}

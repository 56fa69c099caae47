package store

import (
	"context"
	"database/sql"
	"fmt"

	"fjacquet/budget-csv/internal/logging"
)

// SchemaVersion is the schema version this build expects.
const SchemaVersion = 2

type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "Initial schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				date TEXT NOT NULL,
				amount_cents INTEGER NOT NULL,
				merchant TEXT NOT NULL,
				description TEXT,
				transaction_type TEXT NOT NULL,
				category_id TEXT,
				confidence REAL,
				is_duplicate INTEGER NOT NULL DEFAULT 0,
				duplicate_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_hash ON transactions(user_id, duplicate_hash)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_user_category ON transactions(user_id, category_id, date)`,

			`CREATE TABLE IF NOT EXISTS categorization_rules (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				pattern TEXT NOT NULL,
				category_id TEXT NOT NULL,
				confidence REAL NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (user_id, pattern, category_id)
			)`,
		},
	},
	{
		version:     2,
		description: "Add monthly budgets",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS budgets (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				category_id TEXT NOT NULL,
				month TEXT NOT NULL,
				amount_cents INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (user_id, category_id, month)
			)`,
		},
	},
}

// Migrate applies every migration newer than the database's user_version.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
		s.logger.Debug("Applied migration",
			logging.F("version", m.version),
			logging.F("description", m.description))
	}

	var final int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&final); err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	if final != SchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", SchemaVersion, final)
	}
	return nil
}

func (s *SQLiteStore) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := execAll(ctx, tx, m.statements); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d failed: %w", m.version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

func execAll(ctx context.Context, tx *sql.Tx, statements []string) error {
	for _, q := range statements {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

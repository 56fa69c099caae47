package dedup

import (
	"context"
	"time"

	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
)

// Scope bounds the stored history consulted for duplicates. A zero From or
// To leaves that side open.
type Scope struct {
	From time.Time
	To   time.Time
}

// FullHistory is the unbounded scope.
var FullHistory = Scope{}

// ScopeAround returns the window covering every date of batch widened by
// lookbackDays on both sides. A non-positive lookback means full history.
func ScopeAround(batch []models.ParsedTransaction, lookbackDays int) Scope {
	if lookbackDays <= 0 || len(batch) == 0 {
		return FullHistory
	}
	var minDate, maxDate time.Time
	for _, t := range batch {
		d, err := t.Time()
		if err != nil {
			continue
		}
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}
	if minDate.IsZero() {
		return FullHistory
	}
	return Scope{
		From: minDate.AddDate(0, 0, -lookbackDays),
		To:   maxDate.AddDate(0, 0, lookbackDays),
	}
}

// KeyStore supplies the canonical keys already stored for a user.
type KeyStore interface {
	// FetchExistingDuplicateKeys maps each stored key to the id of the
	// stored transaction carrying it.
	FetchExistingDuplicateKeys(ctx context.Context, userID string, scope Scope) (map[string]string, error)
}

// Match is one flagged transaction.
type Match struct {
	// Index is the position of the transaction in the input batch.
	Index       int
	Transaction models.ParsedTransaction

	// ExistingTransactionID is set when the key collided with stored history.
	ExistingTransactionID *string
	DuplicateHash         string
}

// Report is the outcome of a duplicate check.
type Report struct {
	Matches []Match

	// Hashes holds every key that was flagged.
	Hashes map[string]struct{}

	// Keys holds the key of every input transaction, by index.
	Keys []string

	// Degraded is set when stored history could not be read and only
	// batch-internal repeats were checked.
	Degraded *parsererror.DegradedError
}

// IsDuplicate reports whether the transaction at index was flagged.
func (r *Report) IsDuplicate(index int) bool {
	for _, m := range r.Matches {
		if m.Index == index {
			return true
		}
	}
	return false
}

// Flags returns one boolean per input transaction.
func (r *Report) Flags() []bool {
	flags := make([]bool, len(r.Keys))
	for _, m := range r.Matches {
		flags[m.Index] = true
	}
	return flags
}

// Detector flags duplicate transactions.
type Detector struct {
	store  KeyStore
	logger logging.Logger
}

// NewDetector creates a Detector reading history from store.
func NewDetector(store KeyStore, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Detector{store: store, logger: logger}
}

// Detect flags every transaction of batch whose key exists in the user's
// stored history within scope, and every later repeat of a key inside the
// batch. The first occurrence in the batch is flagged only when it collides
// with history. A failed history lookup degrades to batch-internal checks.
func (d *Detector) Detect(ctx context.Context, userID string, batch []models.ParsedTransaction, scope Scope) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		Hashes: make(map[string]struct{}),
		Keys:   make([]string, len(batch)),
	}

	existing, err := d.store.FetchExistingDuplicateKeys(ctx, userID, scope)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		report.Degraded = parsererror.Degraded(parsererror.DuplicateLookupDegraded, err)
		d.logger.WithError(err).Warn("Duplicate history lookup failed, checking batch only",
			logging.F(logging.FieldUserID, userID),
			logging.F(logging.FieldDegraded, string(parsererror.DuplicateLookupDegraded)))
		existing = nil
	}

	seen := make(map[string]struct{}, len(batch))
	for i, t := range batch {
		key := CanonicalKey(t)
		report.Keys[i] = key

		existingID, inHistory := existing[key]
		_, inBatch := seen[key]
		seen[key] = struct{}{}

		if !inHistory && !inBatch {
			continue
		}

		match := Match{Index: i, Transaction: t, DuplicateHash: key}
		if inHistory {
			id := existingID
			match.ExistingTransactionID = &id
		}
		report.Matches = append(report.Matches, match)
		report.Hashes[key] = struct{}{}
	}

	d.logger.Debug("Duplicate check finished",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCount, len(report.Matches)))
	return report, nil
}

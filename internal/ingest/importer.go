// Package ingest runs the import pipeline: parse, flag duplicates,
// categorize and persist. It also applies the user's manual category
// corrections and feeds them to the pattern learner.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"fjacquet/budget-csv/internal/categorizer"
	"fjacquet/budget-csv/internal/csvparser"
	"fjacquet/budget-csv/internal/dedup"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
)

// ErrEmptyUser is returned when an operation names no user.
var ErrEmptyUser = errors.New("user id is required")

// TransactionStore persists imported transactions.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []models.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, userID, id, categoryID string, confidence float64) error
	ListUncategorized(ctx context.Context, userID string) ([]models.Transaction, error)
}

// Options tune one import.
type Options struct {
	// Delimiter of the input; 0 sniffs it.
	Delimiter rune
	// LookbackDays widens the stored history checked for duplicates around
	// the batch dates; 0 checks the full history.
	LookbackDays int
	// SkipDuplicates leaves flagged duplicates out of the saved set.
	SkipDuplicates bool
	// DryRun runs the whole pipeline without saving.
	DryRun bool
}

// ImportResult reports what an import did.
type ImportResult struct {
	Parse        *models.ParseResult
	Transactions []models.Transaction
	Duplicates   []dedup.Match
	Categorized  int
	Saved        int
	Skipped      int
	DryRun       bool

	// Degraded lists the lookups that failed without aborting the import.
	Degraded []*parsererror.DegradedError
}

// Importer wires the pipeline components together.
type Importer struct {
	parser      *csvparser.Parser
	duplicates  *dedup.Detector
	categorizer *categorizer.Categorizer
	learner     *categorizer.Learner
	store       TransactionStore
	locks       *userLocks
	logger      logging.Logger
	now         func() time.Time
}

// NewImporter creates an Importer.
func NewImporter(
	parser *csvparser.Parser,
	duplicates *dedup.Detector,
	cat *categorizer.Categorizer,
	learner *categorizer.Learner,
	store TransactionStore,
	logger logging.Logger,
) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Importer{
		parser:      parser,
		duplicates:  duplicates,
		categorizer: cat,
		learner:     learner,
		store:       store,
		locks:       newUserLocks(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FileImport is the outcome of importing one file of a multi-file import.
type FileImport struct {
	Path   string
	Result *ImportResult
	Err    error
}

// ImportFiles parses the files concurrently, at most concurrency at a time,
// then imports them one after another in the given order so later files see
// the earlier ones as stored history. A file that cannot be parsed or stored
// is reported in its FileImport and does not stop the others. Only
// cancellation aborts the whole call.
func (i *Importer) ImportFiles(ctx context.Context, userID string, paths []string, opts Options, concurrency int) ([]FileImport, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	parsed, err := i.parser.ParseFiles(ctx, paths, opts.Delimiter, concurrency)
	if err != nil {
		return nil, err
	}

	out := make([]FileImport, len(parsed))
	for idx, p := range parsed {
		out[idx] = FileImport{Path: p.Path, Err: p.Err}
		if p.Err != nil {
			continue
		}
		res, err := i.ImportParsed(ctx, userID, p.Result, opts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			out[idx].Err = err
			continue
		}
		out[idx].Result = res
	}
	return out, nil
}

// Import reads, parses and imports a CSV export. An unrecognized header is
// returned as an error and nothing is stored.
func (i *Importer) Import(ctx context.Context, userID string, in io.Reader, opts Options) (*ImportResult, error) {
	parsed, err := i.parser.ParseReader(ctx, in, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	return i.ImportParsed(ctx, userID, parsed, opts)
}

// ImportParsed flags duplicates, categorizes and stores an already parsed
// batch. Failed history or rule lookups degrade the result instead of
// aborting it. Cancellation discards the in-memory result before anything is
// stored.
func (i *Importer) ImportParsed(ctx context.Context, userID string, parsed *models.ParseResult, opts Options) (*ImportResult, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	if parsed == nil {
		return nil, fmt.Errorf("parse result is required")
	}
	start := time.Now()

	release, err := i.locks.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &ImportResult{Parse: parsed, DryRun: opts.DryRun}
	batch := parsed.Transactions
	if len(batch) == 0 {
		return result, nil
	}

	report, err := i.duplicates.Detect(ctx, userID, batch, dedup.ScopeAround(batch, opts.LookbackDays))
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if report.Degraded != nil {
		result.Degraded = append(result.Degraded, report.Degraded)
	}
	result.Duplicates = report.Matches

	merchants := make([]string, len(batch))
	for idx, p := range batch {
		merchants[idx] = p.Merchant
	}
	categories, err := i.categorizer.CategorizeBatch(ctx, userID, merchants)
	if err != nil {
		return nil, fmt.Errorf("categorization failed: %w", err)
	}
	if categories.Degraded != nil {
		result.Degraded = append(result.Degraded, categories.Degraded)
	}

	now := i.now()
	flags := report.Flags()
	for idx, p := range batch {
		if flags[idx] && opts.SkipDuplicates {
			result.Skipped++
			continue
		}
		t := models.NewTransaction(userID, p, now)
		t.DuplicateHash = report.Keys[idx]
		t.IsDuplicate = flags[idx]
		if c := categories.Results[idx]; c.Categorized() {
			t.CategoryID = c.CategoryID
			t.Confidence = c.Confidence
			result.Categorized++
		}
		result.Transactions = append(result.Transactions, t)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := i.store.SaveTransactions(ctx, result.Transactions); err != nil {
			return nil, fmt.Errorf("failed to save transactions: %w", err)
		}
		result.Saved = len(result.Transactions)
	}

	i.logger.Info("Import finished",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldProfile, parsed.DetectedFormat),
		logging.F(logging.FieldCount, len(batch)),
		logging.F("duplicates", len(result.Duplicates)),
		logging.F("categorized", result.Categorized),
		logging.F("saved", result.Saved),
		logging.F("dry_run", opts.DryRun),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return result, nil
}

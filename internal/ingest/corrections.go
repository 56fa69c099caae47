package ingest

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/budget-csv/internal/categorizer"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
	"fjacquet/budget-csv/internal/store"
	"fjacquet/budget-csv/internal/textutils"
)

// BulkResult reports a bulk category assignment.
type BulkResult struct {
	Updated  int
	NotFound []string
	Outcomes []*categorizer.Outcome
}

// RecategorizeResult reports a rerun of the rules over uncategorized
// transactions.
type RecategorizeResult struct {
	Examined    int
	Categorized int
	Degraded    *parsererror.DegradedError
}

// AssignCategory files one stored transaction under categoryID at full
// confidence and teaches the learner the correction.
func (i *Importer) AssignCategory(ctx context.Context, userID, transactionID, categoryID string) (*categorizer.Outcome, error) {
	release, err := i.locks.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	t, err := i.assign(ctx, userID, transactionID, categoryID)
	if err != nil {
		return nil, err
	}
	return i.learner.Learn(ctx, userID, t.Merchant, categoryID)
}

// BulkAssign files several transactions under categoryID. Unknown ids are
// reported and skipped. The learner sees each distinct merchant pattern
// once, so a bulk update of one merchant counts as a single confirmation.
func (i *Importer) BulkAssign(ctx context.Context, userID string, transactionIDs []string, categoryID string) (*BulkResult, error) {
	release, err := i.locks.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &BulkResult{}
	seen := make(map[string]struct{})
	var merchants []string
	for _, id := range transactionIDs {
		t, err := i.assign(ctx, userID, id, categoryID)
		if errors.Is(err, store.ErrNotFound) {
			result.NotFound = append(result.NotFound, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Updated++

		pattern := textutils.DerivePattern(t.Merchant)
		if _, ok := seen[pattern]; ok || pattern == "" {
			continue
		}
		seen[pattern] = struct{}{}
		merchants = append(merchants, t.Merchant)
	}

	for _, m := range merchants {
		outcome, err := i.learner.Learn(ctx, userID, m, categoryID)
		if err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	i.logger.Info("Bulk category update finished",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCategory, categoryID),
		logging.F(logging.FieldCount, result.Updated),
		logging.F("not_found", len(result.NotFound)))
	return result, nil
}

func (i *Importer) assign(ctx context.Context, userID, transactionID, categoryID string) (*models.Transaction, error) {
	if categoryID == "" {
		return nil, categorizer.ErrEmptyCategory
	}
	t, err := i.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	confidence := i.learner.Policy().MaxConfidence
	if err := i.store.UpdateTransactionCategory(ctx, userID, transactionID, categoryID, confidence); err != nil {
		return nil, err
	}
	i.logger.Debug("Assigned category",
		logging.F(logging.FieldTransactionID, transactionID),
		logging.F(logging.FieldCategory, categoryID))
	return t, nil
}

// Recategorize runs the current rules over the user's uncategorized
// transactions. When the rules cannot be fetched nothing is changed and the
// result carries the degraded condition.
func (i *Importer) Recategorize(ctx context.Context, userID string) (*RecategorizeResult, error) {
	release, err := i.locks.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	pending, err := i.store.ListUncategorized(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized transactions: %w", err)
	}
	result := &RecategorizeResult{Examined: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	merchants := make([]string, len(pending))
	for idx, t := range pending {
		merchants[idx] = t.Merchant
	}
	batch, err := i.categorizer.CategorizeBatch(ctx, userID, merchants)
	if err != nil {
		return nil, err
	}
	if batch.Degraded != nil {
		result.Degraded = batch.Degraded
		return result, nil
	}

	for idx, r := range batch.Results {
		if !r.Categorized() {
			continue
		}
		if err := i.store.UpdateTransactionCategory(ctx, userID, pending[idx].ID, *r.CategoryID, *r.Confidence); err != nil {
			return nil, fmt.Errorf("failed to update transaction %s: %w", pending[idx].ID, err)
		}
		result.Categorized++
	}

	i.logger.Info("Recategorized transactions",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCount, result.Examined),
		logging.F("categorized", result.Categorized))
	return result, nil
}

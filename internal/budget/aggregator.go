package budget

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/parsererror"
)

// DefaultConcurrency bounds parallel spend lookups when none is configured.
const DefaultConcurrency = 4

// SpendStore returns the transactions of one category between two dates,
// both inclusive.
type SpendStore interface {
	FetchCategoryTransactions(ctx context.Context, userID, categoryID string, monthStart, monthEnd time.Time) ([]models.SpendEntry, error)
}

// Aggregator computes budget statuses, fetching each budget's spend
// independently.
type Aggregator struct {
	store       SpendStore
	concurrency int
	logger      logging.Logger
}

// NewAggregator creates an Aggregator running at most concurrency lookups at
// once.
func NewAggregator(store SpendStore, concurrency int, logger logging.Logger) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Aggregator{store: store, concurrency: concurrency, logger: logger}
}

// Aggregate returns one status per budget, in input order. A failed lookup
// reports zero spend for that budget with Degraded set; the other budgets
// are unaffected. Only cancellation aborts the aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, budgets []models.Budget) ([]models.BudgetStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	statuses := make([]models.BudgetStatus, len(budgets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, b := range budgets {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := dateutils.StartOfMonth(b.Month)
			end := dateutils.EndOfMonth(b.Month)

			entries, err := a.store.FetchCategoryTransactions(gctx, b.UserID, b.CategoryID, start, end)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				status := ComputeStatus(b, nil)
				status.Degraded = parsererror.Degraded(parsererror.SpendLookupDegraded, err)
				statuses[i] = status
				a.logger.WithError(err).Warn("Spend lookup failed, reporting zero spend",
					logging.F(logging.FieldBudgetID, b.ID),
					logging.F(logging.FieldCategory, b.CategoryID),
					logging.F(logging.FieldMonth, dateutils.MonthKey(b.Month)),
					logging.F(logging.FieldDegraded, string(parsererror.SpendLookupDegraded)))
				return nil
			}
			statuses[i] = ComputeStatus(b, entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return statuses, nil
}

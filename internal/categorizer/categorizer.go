package categorizer

import (
	"context"

	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/parsererror"
)

// BatchResult holds one Result per input merchant.
type BatchResult struct {
	Results []Result

	// Degraded is set when the rules could not be fetched; every result is
	// then uncategorized.
	Degraded *parsererror.DegradedError
}

// Categorized counts the merchants that matched a rule.
func (b *BatchResult) Categorized() int {
	n := 0
	for _, r := range b.Results {
		if r.Categorized() {
			n++
		}
	}
	return n
}

// Categorizer categorizes batches against the rules of one user.
type Categorizer struct {
	store  RuleStore
	logger logging.Logger
}

// NewCategorizer creates a Categorizer reading rules from store.
func NewCategorizer(store RuleStore, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Categorizer{store: store, logger: logger}
}

// LoadRuleSet fetches and sorts the user's rules. A fetch failure yields an
// empty rule set and a DegradedError rather than an error; only
// cancellation is returned as an error.
func (c *Categorizer) LoadRuleSet(ctx context.Context, userID string) (*RuleSet, *parsererror.DegradedError, error) {
	rules, err := c.store.FetchUserRules(ctx, userID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		c.logger.WithError(err).Warn("Rule fetch failed, leaving transactions uncategorized",
			logging.F(logging.FieldUserID, userID),
			logging.F(logging.FieldDegraded, string(parsererror.RuleFetchDegraded)))
		return NewRuleSet(nil), parsererror.Degraded(parsererror.RuleFetchDegraded, err), nil
	}
	return NewRuleSet(rules), nil, nil
}

// CategorizeBatch categorizes merchants in order with one rule fetch.
func (c *Categorizer) CategorizeBatch(ctx context.Context, userID string, merchants []string) (*BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, degraded, err := c.LoadRuleSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Results: make([]Result, len(merchants)), Degraded: degraded}
	for i, m := range merchants {
		out.Results[i] = set.Match(m)
	}

	c.logger.Debug("Categorized batch",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldCount, len(merchants)),
		logging.F("rules", set.Len()),
		logging.F("categorized", out.Categorized()))
	return out, nil
}

package categorizer

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/textutils"
)

// ErrEmptyPattern is returned when a merchant yields no usable pattern.
var ErrEmptyPattern = errors.New("merchant produces an empty rule pattern")

// ErrEmptyCategory is returned when learning is asked for no category.
var ErrEmptyCategory = errors.New("category id is required")

// Policy holds the confidence constants used when learning from corrections.
type Policy struct {
	Baseline            float64
	ReinforcementFactor float64
	Penalty             float64
	RetirementThreshold float64
	MaxConfidence       float64
}

// DefaultPolicy returns the standard learning constants.
func DefaultPolicy() Policy {
	return Policy{
		Baseline:            70,
		ReinforcementFactor: 0.3,
		Penalty:             20,
		RetirementThreshold: 30,
		MaxConfidence:       100,
	}
}

// Validate checks that the constants describe a usable policy.
func (p Policy) Validate() error {
	switch {
	case p.MaxConfidence <= 0:
		return fmt.Errorf("max confidence must be positive, got %v", p.MaxConfidence)
	case p.Baseline <= 0 || p.Baseline > p.MaxConfidence:
		return fmt.Errorf("baseline confidence must be in (0, %v], got %v", p.MaxConfidence, p.Baseline)
	case p.ReinforcementFactor <= 0 || p.ReinforcementFactor > 1:
		return fmt.Errorf("reinforcement factor must be in (0, 1], got %v", p.ReinforcementFactor)
	case p.Penalty < 0:
		return fmt.Errorf("penalty must not be negative, got %v", p.Penalty)
	case p.RetirementThreshold < 0 || p.RetirementThreshold > p.MaxConfidence:
		return fmt.Errorf("retirement threshold must be in [0, %v], got %v", p.MaxConfidence, p.RetirementThreshold)
	}
	return nil
}

// Reinforce moves confidence a fixed fraction of the way to the maximum.
// Repeated confirmation approaches the maximum without overshooting it.
func (p Policy) Reinforce(confidence float64) float64 {
	next := confidence + (p.MaxConfidence-confidence)*p.ReinforcementFactor
	if next > p.MaxConfidence {
		return p.MaxConfidence
	}
	return next
}

// Penalize lowers confidence by the penalty, floored at zero, and reports
// whether the rule falls below the retirement threshold.
func (p Policy) Penalize(confidence float64) (float64, bool) {
	next := confidence - p.Penalty
	if next < 0 {
		next = 0
	}
	return next, next < p.RetirementThreshold
}

// Action describes what learning did to the rule for the chosen category.
type Action string

const (
	ActionCreated    Action = "created"
	ActionReinforced Action = "reinforced"
)

// PenalizedRule records a conflicting rule touched by a correction.
type PenalizedRule struct {
	RuleID     string
	CategoryID string
	Confidence float64
	Retired    bool
}

// Outcome summarizes one learning step.
type Outcome struct {
	Pattern    string
	CategoryID string
	Action     Action
	Confidence float64
	Penalized  []PenalizedRule
}

// Learner turns user corrections into rule changes.
type Learner struct {
	store  RuleStore
	policy Policy
	logger logging.Logger
}

// NewLearner creates a Learner. An invalid policy is an error.
func NewLearner(store RuleStore, policy Policy, logger logging.Logger) (*Learner, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid learning policy: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Learner{store: store, policy: policy, logger: logger}, nil
}

// Policy returns the constants the learner applies.
func (l *Learner) Policy() Policy {
	return l.policy
}

// Learn records that the user filed merchant under categoryID. Rules with the
// same pattern and a different category are penalized, and deleted once they
// fall below the retirement threshold. The rule for the chosen category is
// created at baseline confidence or reinforced if it already exists.
func (l *Learner) Learn(ctx context.Context, userID, merchant, categoryID string) (*Outcome, error) {
	if categoryID == "" {
		return nil, ErrEmptyCategory
	}
	pattern := textutils.DerivePattern(merchant)
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	rules, err := l.store.FetchUserRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rules for user %s: %w", userID, err)
	}

	out := &Outcome{Pattern: pattern, CategoryID: categoryID}
	existingPattern := ""
	existingConfidence := 0.0
	found := false

	for _, r := range rules {
		if textutils.NormalizeMerchant(r.Pattern) != pattern {
			continue
		}
		if r.CategoryID == categoryID {
			if !found {
				found = true
				existingPattern = r.Pattern
				existingConfidence = r.Confidence
			}
			continue
		}

		confidence, retired := l.policy.Penalize(r.Confidence)
		if retired {
			if err := l.store.DeleteRule(ctx, r.ID); err != nil {
				return nil, fmt.Errorf("failed to retire rule %s: %w", r.ID, err)
			}
		} else if err := l.store.UpsertRule(ctx, userID, r.Pattern, r.CategoryID, confidence); err != nil {
			return nil, fmt.Errorf("failed to penalize rule %s: %w", r.ID, err)
		}
		out.Penalized = append(out.Penalized, PenalizedRule{
			RuleID:     r.ID,
			CategoryID: r.CategoryID,
			Confidence: confidence,
			Retired:    retired,
		})
		l.logger.Debug("Penalized conflicting rule",
			logging.F(logging.FieldRuleID, r.ID),
			logging.F(logging.FieldPattern, r.Pattern),
			logging.F(logging.FieldConfidence, confidence),
			logging.F("retired", retired))
	}

	if found {
		out.Action = ActionReinforced
		out.Confidence = l.policy.Reinforce(existingConfidence)
		if err := l.store.UpsertRule(ctx, userID, existingPattern, categoryID, out.Confidence); err != nil {
			return nil, fmt.Errorf("failed to reinforce rule %q: %w", pattern, err)
		}
	} else {
		out.Action = ActionCreated
		out.Confidence = l.policy.Baseline
		if err := l.store.UpsertRule(ctx, userID, pattern, categoryID, out.Confidence); err != nil {
			return nil, fmt.Errorf("failed to create rule %q: %w", pattern, err)
		}
	}

	l.logger.Info("Learned categorization rule",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldPattern, pattern),
		logging.F(logging.FieldCategory, categoryID),
		logging.F(logging.FieldConfidence, out.Confidence),
		logging.F(logging.FieldOperation, string(out.Action)))
	return out, nil
}

package categorizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/budget-csv/internal/models"
)

type fakeRuleStore struct {
	mu       sync.Mutex
	rules    map[string]*models.CategorizationRule
	nextID   int
	fetchErr error
	upserts  int
	deletes  []string
}

func newFakeRuleStore(rules ...models.CategorizationRule) *fakeRuleStore {
	s := &fakeRuleStore{rules: map[string]*models.CategorizationRule{}}
	for i := range rules {
		r := rules[i]
		if r.ID == "" {
			s.nextID++
			r.ID = fmt.Sprintf("seed-%d", s.nextID)
		}
		s.rules[ruleKey(r.UserID, r.Pattern, r.CategoryID)] = &r
	}
	return s
}

func ruleKey(userID, pattern, categoryID string) string {
	return userID + "|" + pattern + "|" + categoryID
}

func (s *fakeRuleStore) FetchUserRules(_ context.Context, userID string) ([]models.CategorizationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []models.CategorizationRule
	for _, r := range s.rules {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeRuleStore) UpsertRule(_ context.Context, userID, pattern, categoryID string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	key := ruleKey(userID, pattern, categoryID)
	if r, ok := s.rules[key]; ok {
		r.Confidence = confidence
		r.UpdatedAt = time.Now()
		return nil
	}
	s.nextID++
	s.rules[key] = &models.CategorizationRule{
		ID:         fmt.Sprintf("rule-%d", s.nextID),
		UserID:     userID,
		Pattern:    pattern,
		CategoryID: categoryID,
		Confidence: confidence,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	return nil
}

func (s *fakeRuleStore) DeleteRule(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range s.rules {
		if r.ID == ruleID {
			delete(s.rules, key)
			s.deletes = append(s.deletes, ruleID)
			return nil
		}
	}
	return fmt.Errorf("rule %s not found", ruleID)
}

func (s *fakeRuleStore) find(userID, pattern, categoryID string) *models.CategorizationRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleKey(userID, pattern, categoryID)]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

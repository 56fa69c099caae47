package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/dedup"
	"fjacquet/budget-csv/internal/models"
)

// MemoryStore is an in-memory implementation of the store interfaces, used
// for dry runs and tests. The error fields force the matching operation to
// fail.
type MemoryStore struct {
	mu           sync.Mutex
	transactions []models.Transaction
	rules        map[string]*models.CategorizationRule
	budgets      map[string]*models.Budget
	now          func() time.Time

	FetchKeysError  error
	FetchRulesError error
	SaveError       error
	UpsertRuleError error
	// SpendErrors fails FetchCategoryTransactions for the listed categories.
	SpendErrors map[string]error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:       make(map[string]*models.CategorizationRule),
		budgets:     make(map[string]*models.Budget),
		SpendErrors: make(map[string]error),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) SaveTransactions(_ context.Context, transactions []models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	m.transactions = append(m.transactions, transactions...)
	return nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, userID, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.UserID == userID && t.ID == id {
			c := t
			return &c, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) UpdateTransactionCategory(_ context.Context, userID, id, categoryID string, confidence float64) error {
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}
	if err := validateConfidence(confidence); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		t := &m.transactions[i]
		if t.UserID == userID && t.ID == id {
			t.CategoryID = &categoryID
			t.Confidence = &confidence
			t.UpdatedAt = m.now()
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (m *MemoryStore) ListUncategorized(_ context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID && t.CategoryID == nil {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for i := range m.transactions {
		t := &m.transactions[i]
		if t.UserID == userID && filter.matches(t) {
			out = append(out, *t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func sortTransactions(ts []models.Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Date != ts[j].Date {
			return ts[i].Date < ts[j].Date
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

func (m *MemoryStore) FetchExistingDuplicateKeys(_ context.Context, userID string, scope dedup.Scope) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchKeysError != nil {
		return nil, m.FetchKeysError
	}
	filter := TransactionFilter{From: scope.From, To: scope.To, IncludeDuplicates: true}
	keys := make(map[string]string)
	for i := range m.transactions {
		t := &m.transactions[i]
		if t.UserID != userID || !filter.matches(t) {
			continue
		}
		if _, seen := keys[t.DuplicateHash]; !seen {
			keys[t.DuplicateHash] = t.ID
		}
	}
	return keys, nil
}

func (m *MemoryStore) FetchCategoryTransactions(_ context.Context, userID, categoryID string, monthStart, monthEnd time.Time) ([]models.SpendEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.SpendErrors[categoryID]; err != nil {
		return nil, err
	}
	filter := TransactionFilter{From: monthStart, To: monthEnd}
	var out []models.SpendEntry
	for i := range m.transactions {
		t := &m.transactions[i]
		if t.UserID == userID && t.CategoryID != nil && *t.CategoryID == categoryID && filter.matches(t) {
			out = append(out, models.SpendEntry{AmountCents: t.AmountCents, Type: t.Type})
		}
	}
	return out, nil
}

func (m *MemoryStore) FetchUserRules(_ context.Context, userID string) ([]models.CategorizationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchRulesError != nil {
		return nil, m.FetchRulesError
	}
	var out []models.CategorizationRule
	for _, r := range m.rules {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (m *MemoryStore) UpsertRule(_ context.Context, userID, pattern, categoryID string, confidence float64) error {
	if err := validateString(pattern, "pattern"); err != nil {
		return err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}
	if err := validateConfidence(confidence); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertRuleError != nil {
		return m.UpsertRuleError
	}
	now := m.now()
	key := userID + "|" + pattern + "|" + categoryID
	if r, ok := m.rules[key]; ok {
		r.Confidence = confidence
		r.UpdatedAt = now
		return nil
	}
	m.rules[key] = &models.CategorizationRule{
		ID:         uuid.NewString(),
		UserID:     userID,
		Pattern:    pattern,
		CategoryID: categoryID,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (m *MemoryStore) DeleteRule(_ context.Context, ruleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, r := range m.rules {
		if r.ID == ruleID {
			delete(m.rules, key)
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", ruleID, ErrNotFound)
}

func (m *MemoryStore) UpsertBudget(_ context.Context, userID, categoryID string, month time.Time, amountCents int64) (*models.Budget, error) {
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}
	if amountCents < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amountCents)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := dateutils.StartOfMonth(month)
	key := userID + "|" + categoryID + "|" + dateutils.MonthKey(start)
	now := m.now()
	b, ok := m.budgets[key]
	if !ok {
		b = &models.Budget{ID: uuid.NewString(), UserID: userID, CategoryID: categoryID, Month: start, CreatedAt: now}
		m.budgets[key] = b
	}
	b.AmountCents = amountCents
	b.UpdatedAt = now
	c := *b
	return &c, nil
}

func (m *MemoryStore) ListBudgets(_ context.Context, userID string, month time.Time) ([]models.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	monthKey := dateutils.MonthKey(month)
	var out []models.Budget
	for _, b := range m.budgets {
		if b.UserID == userID && dateutils.MonthKey(b.Month) == monthKey {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

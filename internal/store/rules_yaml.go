package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/textutils"
)

// RuleSnapshot is the YAML form of a user's rule set, used to back up rules
// or move them between databases.
type RuleSnapshot struct {
	UserID     string      `yaml:"user_id"`
	ExportedAt time.Time   `yaml:"exported_at"`
	Rules      []RuleEntry `yaml:"rules"`
}

// RuleEntry is one rule in a snapshot.
type RuleEntry struct {
	Pattern    string  `yaml:"pattern"`
	CategoryID string  `yaml:"category"`
	Confidence float64 `yaml:"confidence"`
}

// RuleUpserter is the write side needed to restore a snapshot.
type RuleUpserter interface {
	UpsertRule(ctx context.Context, userID, pattern, categoryID string, confidence float64) error
}

// NewRuleSnapshot builds a snapshot with rules sorted by pattern then
// category.
func NewRuleSnapshot(userID string, rules []models.CategorizationRule, now time.Time) *RuleSnapshot {
	snap := &RuleSnapshot{UserID: userID, ExportedAt: now.UTC(), Rules: make([]RuleEntry, 0, len(rules))}
	for _, r := range rules {
		snap.Rules = append(snap.Rules, RuleEntry{Pattern: r.Pattern, CategoryID: r.CategoryID, Confidence: r.Confidence})
	}
	sort.Slice(snap.Rules, func(i, j int) bool {
		if snap.Rules[i].Pattern != snap.Rules[j].Pattern {
			return snap.Rules[i].Pattern < snap.Rules[j].Pattern
		}
		return snap.Rules[i].CategoryID < snap.Rules[j].CategoryID
	})
	return snap
}

// WriteRuleSnapshot encodes snap as YAML.
func WriteRuleSnapshot(w io.Writer, snap *RuleSnapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("error marshaling rules: %w", err)
	}
	return enc.Close()
}

// SaveRuleSnapshot writes snap to path, creating parent directories.
func SaveRuleSnapshot(path string, snap *RuleSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error creating rules file: %w", err)
	}
	if err := WriteRuleSnapshot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadRuleSnapshot decodes a YAML snapshot.
func ReadRuleSnapshot(r io.Reader) (*RuleSnapshot, error) {
	var snap RuleSnapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return &snap, nil
		}
		return nil, fmt.Errorf("error unmarshaling rules: %w", err)
	}
	return &snap, nil
}

// LoadRuleSnapshot reads a snapshot file.
func LoadRuleSnapshot(path string) (*RuleSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadRuleSnapshot(f)
}

// RestoreRuleSnapshot upserts every rule of snap for userID and returns how
// many distinct rules were written. Patterns are normalized the way learned
// patterns are, so "Starbucks" and "starbucks" restore as one rule keeping
// the higher confidence. It stops at the first invalid rule.
func RestoreRuleSnapshot(ctx context.Context, dst RuleUpserter, userID string, snap *RuleSnapshot) (int, error) {
	type ruleKey struct{ pattern, category string }
	written := make(map[ruleKey]float64, len(snap.Rules))

	for i, r := range snap.Rules {
		pattern := textutils.NormalizeMerchant(r.Pattern)
		key := ruleKey{pattern, r.CategoryID}
		if prev, ok := written[key]; ok && prev >= r.Confidence {
			continue
		}
		if err := dst.UpsertRule(ctx, userID, pattern, r.CategoryID, r.Confidence); err != nil {
			return len(written), fmt.Errorf("rule %d (%q): %w", i+1, r.Pattern, err)
		}
		written[key] = r.Confidence
	}
	return len(written), nil
}

package store

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/budget-csv/internal/models"
)

func TestRuleSnapshotRoundTrip(t *testing.T) {
	rules := []models.CategorizationRule{
		{ID: "2", UserID: "u1", Pattern: "uber", CategoryID: "transport", Confidence: 79},
		{ID: "1", UserID: "u1", Pattern: "starbucks", CategoryID: "coffee", Confidence: 70},
	}
	snap := NewRuleSnapshot("u1", rules, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "starbucks", snap.Rules[0].Pattern)

	var buf bytes.Buffer
	require.NoError(t, WriteRuleSnapshot(&buf, snap))
	assert.Contains(t, buf.String(), "pattern: starbucks")
	assert.Contains(t, buf.String(), "category: coffee")

	back, err := ReadRuleSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Rules, back.Rules)

	dst := NewMemoryStore()
	n, err := RestoreRuleSnapshot(context.Background(), dst, "u9", back)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	restored, err := dst.FetchUserRules(context.Background(), "u9")
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, 79.0, restored[1].Confidence)
}

func TestRuleSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "rules.yaml")
	snap := NewRuleSnapshot("u1", []models.CategorizationRule{{Pattern: "shell", CategoryID: "fuel", Confidence: 70}}, time.Now())
	require.NoError(t, SaveRuleSnapshot(path, snap))

	loaded, err := LoadRuleSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.UserID)
	require.Len(t, loaded.Rules, 1)

	_, err = LoadRuleSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRestoreRuleSnapshotStopsOnInvalidRule(t *testing.T) {
	snap, err := ReadRuleSnapshot(strings.NewReader(`
user_id: u1
rules:
  - pattern: netflix
    category: subs
    confidence: 70
  - pattern: ""
    category: junk
    confidence: 70
`))
	require.NoError(t, err)

	n, err := RestoreRuleSnapshot(context.Background(), NewMemoryStore(), "u1", snap)
	assert.ErrorIs(t, err, ErrEmptyString)
	assert.Equal(t, 1, n)

	empty, err := ReadRuleSnapshot(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Rules)
}

func TestRestoreRuleSnapshotNormalizesPatterns(t *testing.T) {
	snap, err := ReadRuleSnapshot(strings.NewReader(`
user_id: u1
rules:
  - pattern: Starbucks
    category: coffee
    confidence: 70
  - pattern: "starbucks "
    category: coffee
    confidence: 85
  - pattern: STARBUCKS
    category: coffee
    confidence: 60
  - pattern: McDonald's
    category: dining
    confidence: 75
`))
	require.NoError(t, err)

	dst := NewMemoryStore()
	n, err := RestoreRuleSnapshot(context.Background(), dst, "u1", snap)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	restored, err := dst.FetchUserRules(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, restored, 2)
	byPattern := map[string]float64{}
	for _, r := range restored {
		byPattern[r.Pattern] = r.Confidence
	}
	assert.Equal(t, map[string]float64{"starbucks": 85, "mcdonalds": 75}, byPattern)
}

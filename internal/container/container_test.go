package container

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/budget-csv/internal/config"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/store"
)

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		config      func(t *testing.T) *config.Config
		expectError string
	}{
		{
			name:        "nil config",
			config:      func(*testing.T) *config.Config { return nil },
			expectError: "configuration cannot be nil",
		},
		{
			name: "sqlite database in temp dir",
			config: func(t *testing.T) *config.Config {
				cfg := config.Default()
				cfg.Database.Path = filepath.Join(t.TempDir(), "budget.db")
				return cfg
			},
		},
		{
			name: "missing profiles file",
			config: func(t *testing.T) *config.Config {
				cfg := config.Default()
				cfg.Database.Path = filepath.Join(t.TempDir(), "budget.db")
				cfg.Profiles.File = filepath.Join(t.TempDir(), "nope.yaml")
				return cfg
			},
			expectError: "failed to load bank profiles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContainer(context.Background(), tt.config(t))
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, c.Close()) }()

			assert.NotNil(t, c.GetLogger())
			assert.NotNil(t, c.GetConfig())
			assert.NotNil(t, c.GetStore())
			assert.NotNil(t, c.GetDetector())
			assert.NotNil(t, c.GetParser())
			assert.NotNil(t, c.GetCategorizer())
			assert.NotNil(t, c.GetLearner())
			assert.NotNil(t, c.GetImporter())
			assert.NotNil(t, c.GetBudgetService())
		})
	}
}

func TestContainerEndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.CSV.Delimiter = ";"
	cfg.Dedup.LookbackDays = 10
	c, err := NewContainerWithStore(cfg, store.NewMemoryStore(), logging.NewMockLogger())
	require.NoError(t, err)

	opts, err := c.ImportOptions()
	require.NoError(t, err)
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, 10, opts.LookbackDays)

	csv := "Booking Date;Counterparty;Description;Amount\n" +
		"02-03-2024;Migros Basel;Groceries;-45,50\n" +
		"05-03-2024;Employer AG;Salary;5000,00\n"
	res, err := c.GetImporter().Import(ctx, "u1", strings.NewReader(csv), opts)
	require.NoError(t, err)
	require.Equal(t, 2, res.Saved)
	assert.Equal(t, "european_semicolon", res.Parse.DetectedFormat)

	_, err = c.GetImporter().AssignCategory(ctx, "u1", res.Transactions[0].ID, "groceries")
	require.NoError(t, err)

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = c.GetBudgetService().SetBudget(ctx, "u1", "groceries", march, 10000)
	require.NoError(t, err)

	statuses, err := c.GetBudgetService().MonthStatus(ctx, "u1", march)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, int64(4550), statuses[0].SpentCents)
	assert.Equal(t, int64(5450), statuses[0].RemainingCents)
	assert.InDelta(t, 45.5, statuses[0].PercentageUsed, 1e-9)
}

func TestNewContainerWithUserProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `profiles:
  - id: my_bank
    name: My bank
    priority: 1
    date_formats: ["YYYY-MM-DD"]
    default_type: expense
    columns:
      - {field: date, aliases: ["Buchungstag"], required: true}
      - {field: merchant, aliases: ["Empfaenger"], required: true}
      - {field: amount, aliases: ["Betrag"], required: true}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := config.Default()
	cfg.Profiles.File = path
	c, err := NewContainerWithStore(cfg, store.NewMemoryStore(), logging.NewMockLogger())
	require.NoError(t, err)

	det, err := c.GetDetector().Detect([]string{"buchungstag", "empfaenger", "betrag"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "my_bank", det.ProfileID())

	_, err = NewContainerWithStore(cfg, nil, nil)
	assert.Error(t, err)
}

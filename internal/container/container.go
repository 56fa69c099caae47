// Package container provides dependency injection for the budget-csv application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"fjacquet/budget-csv/internal/budget"
	"fjacquet/budget-csv/internal/categorizer"
	"fjacquet/budget-csv/internal/config"
	"fjacquet/budget-csv/internal/csvparser"
	"fjacquet/budget-csv/internal/dedup"
	"fjacquet/budget-csv/internal/ingest"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/profile"
	"fjacquet/budget-csv/internal/store"
)

// Store is the persistence surface the application needs. Both
// store.SQLiteStore and store.MemoryStore satisfy it.
type Store interface {
	dedup.KeyStore
	categorizer.RuleStore
	budget.SpendStore
	budget.BudgetStore
	ingest.TransactionStore
	ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]models.Transaction, error)
	Close() error
}

// Container holds all application dependencies and provides methods to access them.
// It acts as the central registry for dependency injection, ensuring that all
// components receive their required dependencies through constructors.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config
	store  Store

	detector    *profile.Detector
	parser      *csvparser.Parser
	categorizer *categorizer.Categorizer
	learner     *categorizer.Learner
	importer    *ingest.Importer
	budgets     *budget.Service
}

// NewContainer creates and wires all application dependencies, opening the
// SQLite database named by the configuration.
//
// Parameters:
//   - ctx: Context bounding database setup
//   - cfg: Application configuration
//
// Returns:
//   - *Container: Fully wired container with all dependencies
//   - error: Any error encountered during dependency creation
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))

	sqlite, err := store.NewSQLiteStore(ctx, cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	c, err := NewContainerWithStore(cfg, sqlite, logger)
	if err != nil {
		_ = sqlite.Close()
		return nil, err
	}
	return c, nil
}

// NewContainerWithStore wires the application around an existing store. It
// is used by tests and dry runs with store.MemoryStore.
func NewContainerWithStore(cfg *config.Config, st Store, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(cfg))
	}

	profiles, err := profile.Load(cfg.Profiles.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank profiles: %w", err)
	}
	detector, err := profile.NewDetector(profiles, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid bank profiles: %w", err)
	}

	learner, err := categorizer.NewLearner(st, cfg.LearningPolicy(), logger)
	if err != nil {
		return nil, err
	}

	parser := csvparser.NewParser(detector, cfg.CSV.ChunkSize, logger)
	cat := categorizer.NewCategorizer(st, logger)
	importer := ingest.NewImporter(parser, dedup.NewDetector(st, logger), cat, learner, st, logger)
	budgets := budget.NewService(st, budget.NewAggregator(st, cfg.Budget.Concurrency, logger), logger)

	logger.Debug("Container initialized successfully",
		logging.F("profiles_count", len(profiles)),
		logging.F("database", cfg.Database.Path))

	return &Container{
		logger:      logger,
		config:      cfg,
		store:       st,
		detector:    detector,
		parser:      parser,
		categorizer: cat,
		learner:     learner,
		importer:    importer,
		budgets:     budgets,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the container's store.
func (c *Container) GetStore() Store {
	return c.store
}

// GetDetector returns the bank format detector.
func (c *Container) GetDetector() *profile.Detector {
	return c.detector
}

// GetParser returns the CSV parser.
func (c *Container) GetParser() *csvparser.Parser {
	return c.parser
}

// GetCategorizer returns the rule-based categorizer.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetLearner returns the pattern learner.
func (c *Container) GetLearner() *categorizer.Learner {
	return c.learner
}

// GetImporter returns the import pipeline.
func (c *Container) GetImporter() *ingest.Importer {
	return c.importer
}

// GetBudgetService returns the budget service.
func (c *Container) GetBudgetService() *budget.Service {
	return c.budgets
}

// ImportOptions returns import options populated from configuration.
func (c *Container) ImportOptions() (ingest.Options, error) {
	delimiter, err := c.config.CSV.DelimiterRune()
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{
		Delimiter:      delimiter,
		LookbackDays:   c.config.Dedup.LookbackDays,
		SkipDuplicates: c.config.Import.SkipDuplicates,
	}, nil
}

// Close releases the store.
func (c *Container) Close() error {
	start := time.Now()
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed", logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return nil
}

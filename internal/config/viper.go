// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fjacquet/budget-csv/internal/categorizer"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "BUDGET"

// Config represents the complete application configuration
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	CSV      CSVConfig      `mapstructure:"csv" yaml:"csv"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Profiles ProfilesConfig `mapstructure:"profiles" yaml:"profiles"`
	Dedup    DedupConfig    `mapstructure:"dedup" yaml:"dedup"`
	Learning LearningConfig `mapstructure:"learning" yaml:"learning"`
	Budget   BudgetConfig   `mapstructure:"budget" yaml:"budget"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type CSVConfig struct {
	// Delimiter is a single character, "tab", or empty to sniff it.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	ChunkSize int    `mapstructure:"chunk_size" yaml:"chunk_size"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ProfilesConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

type DedupConfig struct {
	LookbackDays int `mapstructure:"lookback_days" yaml:"lookback_days"`
}

type LearningConfig struct {
	BaselineConfidence  float64 `mapstructure:"baseline_confidence" yaml:"baseline_confidence"`
	ReinforcementFactor float64 `mapstructure:"reinforcement_factor" yaml:"reinforcement_factor"`
	Penalty             float64 `mapstructure:"penalty" yaml:"penalty"`
	RetirementThreshold float64 `mapstructure:"retirement_threshold" yaml:"retirement_threshold"`
	MaxConfidence       float64 `mapstructure:"max_confidence" yaml:"max_confidence"`
}

type BudgetConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

type ImportConfig struct {
	SkipDuplicates bool `mapstructure:"skip_duplicates" yaml:"skip_duplicates"`
	// Concurrency bounds how many files are parsed at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile loads configuration like InitializeConfig but
// reads the given file instead of searching for config.yaml. A named file
// that cannot be read is an error.
func InitializeConfigFromFile(configFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.budget-csv")
		v.AddConfigPath(".budget-csv")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case configFile != "":
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		case !errors.As(err, &notFound):
			fmt.Fprintf(os.Stderr, "Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration built from defaults only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Defaults always decode.
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", "")
	v.SetDefault("csv.chunk_size", 500)

	v.SetDefault("database.path", "budget.db")
	v.SetDefault("profiles.file", "")
	v.SetDefault("dedup.lookback_days", 0)

	policy := categorizer.DefaultPolicy()
	v.SetDefault("learning.baseline_confidence", policy.Baseline)
	v.SetDefault("learning.reinforcement_factor", policy.ReinforcementFactor)
	v.SetDefault("learning.penalty", policy.Penalty)
	v.SetDefault("learning.retirement_threshold", policy.RetirementThreshold)
	v.SetDefault("learning.max_confidence", policy.MaxConfidence)

	v.SetDefault("budget.concurrency", 4)
	v.SetDefault("import.skip_duplicates", false)
	v.SetDefault("import.concurrency", 4)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if _, err := config.CSV.DelimiterRune(); err != nil {
		return err
	}

	if config.CSV.ChunkSize < 1 {
		return fmt.Errorf("csv.chunk_size must be positive, got: %d", config.CSV.ChunkSize)
	}

	if strings.TrimSpace(config.Database.Path) == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if config.Dedup.LookbackDays < 0 {
		return fmt.Errorf("dedup.lookback_days must not be negative, got: %d", config.Dedup.LookbackDays)
	}

	l := config.Learning
	for name, value := range map[string]float64{
		"learning.baseline_confidence":  l.BaselineConfidence,
		"learning.penalty":              l.Penalty,
		"learning.retirement_threshold": l.RetirementThreshold,
		"learning.max_confidence":       l.MaxConfidence,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got: %v", name, value)
		}
	}
	if err := config.LearningPolicy().Validate(); err != nil {
		return fmt.Errorf("invalid learning settings: %w", err)
	}

	if config.Budget.Concurrency < 1 {
		return fmt.Errorf("budget.concurrency must be at least 1, got: %d", config.Budget.Concurrency)
	}

	if config.Import.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be at least 1, got: %d", config.Import.Concurrency)
	}

	return nil
}

// DelimiterRune returns the configured delimiter, or 0 when it should be
// sniffed from the input.
func (c CSVConfig) DelimiterRune() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	runes := []rune(c.Delimiter)
	if len(runes) != 1 {
		return 0, fmt.Errorf("CSV delimiter must be a single character, got: %s", c.Delimiter)
	}
	if runes[0] == '"' || runes[0] == '\n' || runes[0] == '\r' {
		return 0, fmt.Errorf("CSV delimiter %q is not allowed", c.Delimiter)
	}
	return runes[0], nil
}

// LearningPolicy converts the learning section into the learner's policy.
func (c *Config) LearningPolicy() categorizer.Policy {
	return categorizer.Policy{
		Baseline:            c.Learning.BaselineConfidence,
		ReinforcementFactor: c.Learning.ReinforcementFactor,
		Penalty:             c.Learning.Penalty,
		RetirementThreshold: c.Learning.RetirementThreshold,
		MaxConfidence:       c.Learning.MaxConfidence,
	}
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

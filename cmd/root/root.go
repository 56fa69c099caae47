// Package root contains the root command for the application
package root

import (
	"fmt"

	"fjacquet/budget-csv/internal/config"
	"fjacquet/budget-csv/internal/container"
	"fjacquet/budget-csv/internal/logging"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DefaultUser is used when neither --user nor BUDGET_USER is set.
const DefaultUser = "default"

// CommonFlags represents the flags that are common to all commands
type CommonFlags struct {
	ConfigFile string
	UserID     string
	NoColor    bool
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// AppContainer holds the wired dependencies once the pre-run has executed.
	AppContainer *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "budget-csv",
		Short: "Import bank CSV exports, categorize transactions and track budgets.",
		Long: `budget-csv imports CSV exports from many banks into a local database.
It detects the bank format, flags duplicates, categorizes merchants with
learned rules and reports monthly spending against budgets.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to budget-csv!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return Setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			Teardown()
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.ConfigFile, "config", "c", "", "Config file (default config.yaml in $HOME/.budget-csv, .budget-csv or .)")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.UserID, "user", "u", "", "User owning the data (default $BUDGET_USER or \"default\")")
	Cmd.PersistentFlags().BoolVar(&SharedFlags.NoColor, "no-color", false, "Disable colored output")
}

// Setup loads the environment and configuration and builds the container.
// A container installed with SetContainer is reused as is.
func Setup(cmd *cobra.Command) error {
	if SharedFlags.NoColor {
		color.NoColor = true
	}
	if AppContainer != nil {
		return nil
	}

	config.LoadEnv(Log)

	var (
		cfg *config.Config
		err error
	)
	if SharedFlags.ConfigFile != "" {
		cfg, err = config.InitializeConfigFromFile(SharedFlags.ConfigFile)
	} else {
		cfg, err = config.InitializeConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	SetContainer(c)
	return nil
}

// SetContainer installs c as the application container.
func SetContainer(c *container.Container) {
	AppContainer = c
	if c != nil {
		Log = c.GetLogger()
	}
}

// Teardown closes the application container.
func Teardown() {
	if AppContainer == nil {
		return
	}
	if err := AppContainer.Close(); err != nil {
		Log.WithError(err).Warn("Failed to close container")
	}
	AppContainer = nil
}

// User returns the user the command acts for.
func User() string {
	if SharedFlags.UserID != "" {
		return SharedFlags.UserID
	}
	return config.GetEnv("BUDGET_USER", DefaultUser)
}

// Container returns the application container or an error when the
// pre-run has not built it.
func Container() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return AppContainer, nil
}

// Package export implements the export command.
package export

import (
	"fmt"
	"io"
	"time"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/internal/csvparser"
	"fjacquet/budget-csv/internal/fileutils"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions as CSV",
	Long: `Export the user's normalized transactions as CSV, ordered by date.
Duplicates are left out unless --include-duplicates is given.`,
	Args: cobra.NoArgs,
	RunE: exportFunc,
}

func init() {
	Cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	Cmd.Flags().String("from", "", "First date to export (YYYY-MM-DD)")
	Cmd.Flags().String("to", "", "Last date to export (YYYY-MM-DD)")
	Cmd.Flags().Bool("include-duplicates", false, "Also export transactions flagged as duplicates")
	Cmd.Flags().StringP("delimiter", "d", "", "CSV delimiter (default: from configuration)")
}

func exportFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	csvCfg := c.GetConfig().CSV
	if cmd.Flags().Changed("delimiter") {
		csvCfg.Delimiter, _ = cmd.Flags().GetString("delimiter")
	}
	delimiter, err := csvCfg.DelimiterRune()
	if err != nil {
		return err
	}

	user := root.User()
	transactions, err := c.GetStore().ListTransactions(cmd.Context(), user, filter)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	output, _ := cmd.Flags().GetString("output")
	if err := write(cmd.OutOrStdout(), output, transactions, delimiter); err != nil {
		return err
	}
	root.Log.Info("Transactions exported",
		logging.F(logging.FieldUserID, user),
		logging.F(logging.FieldCount, len(transactions)),
		logging.F(logging.FieldFile, output))
	return nil
}

func filterFromFlags(cmd *cobra.Command) (store.TransactionFilter, error) {
	var filter store.TransactionFilter
	filter.IncludeDuplicates, _ = cmd.Flags().GetBool("include-duplicates")

	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(models.ISODateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid --%s date %q: expected YYYY-MM-DD", name, raw)
		}
		*dst = t
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, fmt.Errorf("--to must not be before --from")
	}
	return filter, nil
}

func write(stdout io.Writer, output string, transactions []models.Transaction, delimiter rune) error {
	if output == "" {
		return csvparser.WriteTransactions(stdout, transactions, delimiter)
	}
	f, err := fileutils.CreateFile(output)
	if err != nil {
		return err
	}
	if err := csvparser.WriteTransactions(f, transactions, delimiter); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}


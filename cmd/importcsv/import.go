// Package importcsv implements the import command.
package importcsv

import (
	"fmt"
	"io"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/internal/config"
	"fjacquet/budget-csv/internal/fileutils"
	"fjacquet/budget-csv/internal/ingest"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/parsererror"

	"github.com/spf13/cobra"
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import <file.csv|dir>...",
	Short: "Import bank CSV exports",
	Long: `Import one or more bank CSV exports. Directories are searched for *.csv
files. The bank format is detected from
the header, duplicates of already imported transactions are flagged and
known merchants are categorized with the learned rules.`,
	Args: cobra.MinimumNArgs(1),
	RunE: importFunc,
}

func init() {
	Cmd.Flags().BoolP("dry-run", "n", false, "Run the pipeline without saving anything")
	Cmd.Flags().BoolP("skip-duplicates", "s", false, "Do not save transactions flagged as duplicates")
	Cmd.Flags().Int("lookback-days", 0, "Days of history around the file dates checked for duplicates (0 = all)")
	Cmd.Flags().StringP("delimiter", "d", "", "CSV delimiter, e.g. ';' or 'tab' (default: sniffed)")
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	opts, err := c.ImportOptions()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, &opts); err != nil {
		return err
	}

	paths, err := fileutils.ExpandInputs(args, ".csv")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files found in %v", args)
	}

	user := root.User()
	results, err := c.GetImporter().ImportFiles(cmd.Context(), user, paths, opts, c.GetConfig().Import.Concurrency)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "%s: failed: %v\n", r.Path, r.Err)
			continue
		}
		printResult(out, r.Path, r.Result)
		root.Log.Debug("File imported",
			logging.F(logging.FieldFile, r.Path),
			logging.F(logging.FieldUserID, user),
			logging.F(logging.FieldCount, r.Result.Saved))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be imported", failed, len(results))
	}
	return nil
}

func applyFlags(cmd *cobra.Command, opts *ingest.Options) error {
	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		opts.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("skip-duplicates") {
		opts.SkipDuplicates, _ = flags.GetBool("skip-duplicates")
	}
	if flags.Changed("lookback-days") {
		days, _ := flags.GetInt("lookback-days")
		if days < 0 {
			return fmt.Errorf("lookback-days cannot be negative")
		}
		opts.LookbackDays = days
	}
	if flags.Changed("delimiter") {
		raw, _ := flags.GetString("delimiter")
		delimiter, err := config.CSVConfig{Delimiter: raw}.DelimiterRune()
		if err != nil {
			return err
		}
		opts.Delimiter = delimiter
	}
	return nil
}

func printResult(w io.Writer, path string, res *ingest.ImportResult) {
	_, _ = fmt.Fprintf(w, "%s: format %s, %d rows, %d parsed, %d errors\n",
		path, res.Parse.DetectedFormat, res.Parse.TotalRows, res.Parse.SuccessCount, res.Parse.ErrorCount)
	for _, rowErr := range res.Parse.Errors {
		_, _ = fmt.Fprintf(w, "  %s\n", rowErr.Error())
	}
	_, _ = fmt.Fprintf(w, "  duplicates: %d, categorized: %d, skipped: %d\n",
		len(res.Duplicates), res.Categorized, res.Skipped)
	for _, d := range res.Degraded {
		_, _ = fmt.Fprintf(w, "  warning: %s%s\n", d.Error(), degradedHint(d))
	}
	if res.DryRun {
		_, _ = fmt.Fprintf(w, "  dry run: %d transactions would be saved\n", len(res.Transactions))
		return
	}
	_, _ = fmt.Fprintf(w, "  saved: %d\n", res.Saved)
}

func degradedHint(err error) string {
	switch {
	case parsererror.IsDegraded(err, parsererror.DuplicateLookupDegraded):
		return " (duplicates checked within this file only)"
	case parsererror.IsDegraded(err, parsererror.RuleFetchDegraded):
		return " (transactions left uncategorized)"
	default:
		return ""
	}
}

// Package categorize handles transaction categorization commands
package categorize

import (
	"fmt"
	"io"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/internal/categorizer"
	"fjacquet/budget-csv/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize transactions and teach the rules",
	Long: `Categorize transactions based on the merchant name. Manual assignments
teach the learned rules so future imports of the same merchant are
categorized automatically.`,
}

var assignCmd = &cobra.Command{
	Use:   "assign <category> <transaction-id>...",
	Short: "Assign a category to transactions",
	Long: `Assign a category to one or more stored transactions. Each assignment
reinforces the rule for the merchant and penalizes rules that pointed the
same merchant elsewhere.`,
	Args: cobra.MinimumNArgs(2),
	RunE: assignFunc,
}

var rerunCmd = &cobra.Command{
	Use:   "rerun",
	Short: "Apply the current rules to uncategorized transactions",
	Args:  cobra.NoArgs,
	RunE:  rerunFunc,
}

func init() {
	Cmd.AddCommand(assignCmd)
	Cmd.AddCommand(rerunCmd)
}

func assignFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	category, ids := args[0], args[1:]

	res, err := c.GetImporter().BulkAssign(cmd.Context(), root.User(), ids, category)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%d transactions assigned to %s\n", res.Updated, category)
	for _, id := range res.NotFound {
		_, _ = fmt.Fprintf(out, "  not found: %s\n", id)
	}
	for _, o := range res.Outcomes {
		printOutcome(out, o)
	}
	return nil
}

func printOutcome(w io.Writer, o *categorizer.Outcome) {
	_, _ = fmt.Fprintf(w, "  rule %q -> %s %s (%.1f)\n", o.Pattern, o.CategoryID, o.Action, o.Confidence)
	for _, p := range o.Penalized {
		if p.Retired {
			_, _ = fmt.Fprintf(w, "  rule %q -> %s retired\n", o.Pattern, p.CategoryID)
			continue
		}
		_, _ = fmt.Fprintf(w, "  rule %q -> %s penalized (%.1f)\n", o.Pattern, p.CategoryID, p.Confidence)
	}
}

func rerunFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	user := root.User()
	res, err := c.GetImporter().Recategorize(cmd.Context(), user)
	if err != nil {
		return err
	}
	if res.Degraded != nil {
		root.Log.Warn("Rules unavailable, nothing was categorized",
			logging.F(logging.FieldUserID, user))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d uncategorized transactions categorized\n",
		res.Categorized, res.Examined)
	return nil
}

// Package rules implements the commands that inspect and move learned
// categorization rules.
package rules

import (
	"fmt"
	"text/tabwriter"
	"time"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:     "rules",
	Aliases: []string{"rule"},
	Short:   "Manage learned categorization rules",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the learned rules",
	Args:  cobra.NoArgs,
	RunE:  listFunc,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the learned rules as YAML",
	Args:  cobra.NoArgs,
	RunE:  exportFunc,
}

var importCmd = &cobra.Command{
	Use:   "import <rules.yaml>",
	Short: "Import rules from a YAML export",
	Long: `Import rules from a file written by "rules export". Existing rules for
the same merchant pattern and category are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func init() {
	listCmd.Flags().String("category", "", "Only show rules for this category")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(importCmd)
}

func listFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	rules, err := c.GetStore().FetchUserRules(cmd.Context(), root.User())
	if err != nil {
		return fmt.Errorf("failed to fetch rules: %w", err)
	}
	category, _ := cmd.Flags().GetString("category")

	out := cmd.OutOrStdout()
	if len(rules) == 0 {
		_, _ = fmt.Fprintln(out, "No rules learned yet")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATTERN\tCATEGORY\tCONFIDENCE\tUPDATED")
	for _, r := range rules {
		if category != "" && r.CategoryID != category {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n",
			r.Pattern, r.CategoryID, r.Confidence, r.UpdatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func exportFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	user := root.User()
	rules, err := c.GetStore().FetchUserRules(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("failed to fetch rules: %w", err)
	}

	snap := store.NewRuleSnapshot(user, rules, time.Now())
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return store.WriteRuleSnapshot(cmd.OutOrStdout(), snap)
	}
	if err := store.SaveRuleSnapshot(output, snap); err != nil {
		return err
	}
	root.Log.Info("Rules exported",
		logging.F(logging.FieldFile, output),
		logging.F(logging.FieldCount, len(snap.Rules)))
	return nil
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	snap, err := store.LoadRuleSnapshot(args[0])
	if err != nil {
		return err
	}
	n, err := store.RestoreRuleSnapshot(cmd.Context(), c.GetStore(), root.User(), snap)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rules imported\n", n)
	return nil
}

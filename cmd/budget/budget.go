// Package budget implements the budget commands.
package budget

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/internal/currencyutils"
	"fjacquet/budget-csv/internal/dateutils"
	"fjacquet/budget-csv/internal/models"
	"fjacquet/budget-csv/internal/report"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Cmd represents the budget command
var Cmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly category budgets",
	Long:  `Set monthly spending limits per category and report spending against them.`,
}

var setCmd = &cobra.Command{
	Use:   "set <category> <amount>",
	Short: "Set the budget of a category for a month",
	Long: `Set the spending limit of a category for a month. Setting it again
replaces the previous amount.`,
	Args: cobra.ExactArgs(2),
	RunE: setFunc,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show spending against the budgets of a month",
	Args:  cobra.NoArgs,
	RunE:  statusFunc,
}

var (
	overBudget = color.New(color.FgRed, color.Bold).SprintFunc()
	nearBudget = color.New(color.FgYellow).SprintFunc()
)

func init() {
	for _, c := range []*cobra.Command{setCmd, statusCmd} {
		c.Flags().StringP("month", "m", "", "Month as YYYY-MM (default: current month)")
	}
	statusCmd.Flags().StringP("format", "f", "table", "Output format: table, json or yaml")
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(statusCmd)
}

func monthFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("month")
	if raw == "" {
		return dateutils.StartOfMonth(time.Now().UTC()), nil
	}
	return dateutils.ParseMonth(raw)
}

func setFunc(cmd *cobra.Command, args []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	month, err := monthFlag(cmd)
	if err != nil {
		return err
	}
	amount, err := currencyutils.ParseCents(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	b, err := c.GetBudgetService().SetBudget(cmd.Context(), root.User(), args[0], month, amount.Cents)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s in %s set to %s\n",
		b.CategoryID, dateutils.MonthKey(b.Month), currencyutils.FormatCents(b.AmountCents, ""))
	return nil
}

func statusFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}
	month, err := monthFlag(cmd)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	user := root.User()
	statuses, err := c.GetBudgetService().MonthStatus(cmd.Context(), user, month)
	if err != nil {
		return err
	}
	if format != "table" {
		r := report.NewBudgetReport(user, month, statuses, time.Now())
		out, err := report.NewReportGenerator(root.Log).GenerateReport(r, format)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if len(statuses) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No budgets set for %s\n", dateutils.MonthKey(month))
		return nil
	}
	return printStatuses(cmd.OutOrStdout(), statuses)
}

func printStatuses(out io.Writer, statuses []models.BudgetStatus) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tBUDGET\tSPENT\tREMAINING\tUSED")
	for _, s := range statuses {
		used := fmt.Sprintf("%.2f%%", s.PercentageUsed)
		switch {
		case s.OverBudget():
			used = overBudget(used)
		case s.PercentageUsed >= 80:
			used = nearBudget(used)
		}
		if s.Degraded != nil {
			used += " (spend unavailable)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.CategoryID,
			currencyutils.FormatCents(s.AmountCents, ""),
			currencyutils.FormatCents(s.SpentCents, ""),
			currencyutils.FormatCents(s.RemainingCents, ""),
			used)
	}
	return w.Flush()
}

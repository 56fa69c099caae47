// Package profiles implements the command listing the known bank formats.
package profiles

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"fjacquet/budget-csv/cmd/root"

	"github.com/spf13/cobra"
)

// Cmd represents the profiles command
var Cmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the bank CSV formats that can be detected",
	Long: `List the bank CSV formats in detection order. Formats are tried from
the lowest priority value up; a file matching none of them is read with the
generic column heuristics.`,
	Args: cobra.NoArgs,
	RunE: profilesFunc,
}

func profilesFunc(cmd *cobra.Command, _ []string) error {
	c, err := root.Container()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRIORITY\tID\tNAME\tREQUIRED COLUMNS\tOPTIONAL COLUMNS")
	for _, p := range c.GetDetector().Profiles() {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			p.Priority, p.ID, p.Name,
			strings.Join(p.RequiredAliases(), ", "),
			strings.Join(p.OptionalAliases(), ", "))
	}
	return w.Flush()
}

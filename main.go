package main

import (
	"fmt"
	"os"

	"fjacquet/budget-csv/cmd/budget"
	"fjacquet/budget-csv/cmd/categorize"
	"fjacquet/budget-csv/cmd/export"
	"fjacquet/budget-csv/cmd/importcsv"
	"fjacquet/budget-csv/cmd/profiles"
	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/cmd/rules"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importcsv.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(budget.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(profiles.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

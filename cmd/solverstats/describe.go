package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var describeCmd = &cobra.Command{
	Use:   "describe [table]",
	Short: "Print table schemas",
	Long:  `Print the columns and types of the given table. If no table is given, all schemas are printed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	db, err := readDatabase()
	if err != nil {
		return err
	}

	tables, err := selectTables(db, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	for _, t := range tables {
		if err := report.Describe(out, t); err != nil {
			return fmt.Errorf("describing %s: %w", t.Name, err)
		}

		fmt.Fprintln(out)
	}

	return nil
}

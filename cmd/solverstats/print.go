package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var printFormat string

var printCmd = &cobra.Command{
	Use:   "print [table]",
	Short: "Print table rows",
	Long:  `Print the rows of the given table. If no table is given, all tables are printed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPrint,
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.Flags().StringVarP(&printFormat, "format", "f", report.FormatTable,
		"output format ("+strings.Join(report.Formats, ", ")+")")
}

func runPrint(cmd *cobra.Command, args []string) error {
	if err := report.CheckFormat(printFormat); err != nil {
		return err
	}

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
		if printFormat == report.FormatTable {
			fmt.Fprintf(out, "%s (%d rows)\n", t.Name, len(t.Rows))
		}

		if err := report.Print(out, t, printFormat); err != nil {
			return fmt.Errorf("printing %s: %w", t.Name, err)
		}
	}

	return nil
}

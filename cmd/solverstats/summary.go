package main

import (
	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var summaryColumn string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print per configuration statistics of a run column",
	Long:  `Print count, min, quartiles, max and mean of a run column for each configuration.`,
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&summaryColumn, "column", "y", "objective_score",
		"run column to summarize")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	db, err := readDatabase()
	if err != nil {
		return err
	}

	boxes, err := report.BoxStats(db, summaryColumn)
	if err != nil {
		return err
	}

	report.RenderBoxes(cmd.OutOrStdout(), boxes)

	return nil
}

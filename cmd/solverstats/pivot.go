package main

import (
	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var (
	pivotColumn  string
	pivotQ0      float64
	pivotQ1      float64
	pivotNoColor bool
)

var pivotCmd = &cobra.Command{
	Use:   "pivot",
	Short: "Print a run column as a flatzinc by configuration matrix",
	Long: `Print one cell per run, flatzincs as rows and configurations as columns.
Cells at or below the q0 quantile are green, cells at or above q1 are red.`,
	Args: cobra.NoArgs,
	RunE: runPivot,
}

func init() {
	rootCmd.AddCommand(pivotCmd)
	pivotCmd.Flags().StringVarP(&pivotColumn, "column", "z", "objective_score",
		"run column to show in the cells")
	pivotCmd.Flags().Float64Var(&pivotQ0, "q0", report.DefaultQ0,
		"quantile for the low color bound")
	pivotCmd.Flags().Float64Var(&pivotQ1, "q1", report.DefaultQ1,
		"quantile for the high color bound")
	pivotCmd.Flags().BoolVar(&pivotNoColor, "no-color", false,
		"disable cell coloring")
}

func runPivot(cmd *cobra.Command, _ []string) error {
	opts := report.PivotOptions{Q0: pivotQ0, Q1: pivotQ1}
	if err := opts.Validate(); err != nil {
		return err
	}

	db, err := readDatabase()
	if err != nil {
		return err
	}

	pivot, err := report.Pivot(db, pivotColumn, opts)
	if err != nil {
		return err
	}

	pivot.Render(cmd.OutOrStdout(), !pivotNoColor)

	return nil
}

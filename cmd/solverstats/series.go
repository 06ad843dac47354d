package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var (
	seriesX string
	seriesY string
)

var seriesCmd = &cobra.Command{
	Use:   "series ID...",
	Short: "Print the event series of flatzincs",
	Long: `Print, for each given flatzinc id and each configuration, the sequence of
(x, y) event values. Flatzinc ids are listed by "print flatzinc".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeries,
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.Flags().StringVarP(&seriesX, "x", "x", "num_decisions",
		"x axis column from the event table")
	seriesCmd.Flags().StringVarP(&seriesY, "y", "y", "objective",
		"y axis column from the event table")
}

func runSeries(cmd *cobra.Command, args []string) error {
	ids := make([]int, 0, len(args))

	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid flatzinc id %q: %w", arg, err)
		}

		ids = append(ids, id)
	}

	db, err := readDatabase()
	if err != nil {
		return err
	}

	curves, err := report.Series(db, ids, seriesX, seriesY)
	if err != nil {
		return err
	}

	report.RenderCurves(cmd.OutOrStdout(), curves)

	return nil
}

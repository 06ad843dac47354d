package report

import (
	"io"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/ethpandaops/solverstats/pkg/database"
)

// Box summarizes the distribution of a run column for one configuration.
type Box struct {
	Configuration string  `json:"configuration" yaml:"configuration"`
	Count         int     `json:"count" yaml:"count"`
	Min           float64 `json:"min" yaml:"min"`
	Q1            float64 `json:"q1" yaml:"q1"`
	Median        float64 `json:"median" yaml:"median"`
	Q3            float64 `json:"q3" yaml:"q3"`
	Max           float64 `json:"max" yaml:"max"`
	Mean          float64 `json:"mean" yaml:"mean"`
}

// BoxStats returns one Box per configuration with at least one non-null
// value of the numeric run column, in configuration id order.
func BoxStats(db *database.Database, column string) ([]Box, error) {
	runs, err := db.Table(database.TableRun)
	if err != nil {
		return nil, err
	}

	idx, err := numericColumn(runs, column)
	if err != nil {
		return nil, err
	}

	values := make([][]float64, len(db.Configurations))

	for i, run := range db.Runs {
		if v, ok := database.Float(runs.Rows[i][idx]); ok {
			values[run.ConfigurationID] = append(values[run.ConfigurationID], v)
		}
	}

	boxes := make([]Box, 0, len(db.Configurations))

	for i, x := range values {
		if len(x) == 0 {
			continue
		}

		slices.Sort(x)

		boxes = append(boxes, Box{
			Configuration: db.Configurations[i].Name,
			Count:         len(x),
			Min:           x[0],
			Q1:            stat.Quantile(0.25, stat.Empirical, x, nil),
			Median:        stat.Quantile(0.5, stat.Empirical, x, nil),
			Q3:            stat.Quantile(0.75, stat.Empirical, x, nil),
			Max:           x[len(x)-1],
			Mean:          stat.Mean(x, nil),
		})
	}

	return boxes, nil
}

// RenderBoxes writes box statistics as a text table.
func RenderBoxes(w io.Writer, boxes []Box) {
	table := newTable(w, []string{"configuration", "count", "min", "q1", "median", "q3", "max", "mean"})

	for _, b := range boxes {
		table.Append([]string{
			b.Configuration,
			strconv.Itoa(b.Count),
			formatFloat(b.Min),
			formatFloat(b.Q1),
			formatFloat(b.Median),
			formatFloat(b.Q3),
			formatFloat(b.Max),
			formatFloat(b.Mean),
		})
	}

	table.Render()
}

package report

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/stat"

	"github.com/ethpandaops/solverstats/pkg/database"
)

// ErrInvalidQuantile is returned for quantiles outside [0, 1] or q0 >= q1.
var ErrInvalidQuantile = errors.New("invalid quantile")

// Default quantiles bounding the pivot color scale.
const (
	DefaultQ0 = 0.1
	DefaultQ1 = 0.9
)

// PivotOptions configures Pivot.
type PivotOptions struct {
	Q0 float64
	Q1 float64
}

// Validate checks that 0 <= Q0 < Q1 <= 1.
func (o PivotOptions) Validate() error {
	for _, q := range []float64{o.Q0, o.Q1} {
		if q < 0 || q > 1 {
			return fmt.Errorf("%w: %g is not in [0, 1]", ErrInvalidQuantile, q)
		}
	}

	if o.Q0 >= o.Q1 {
		return fmt.Errorf("%w: q0 must be strictly less than q1, got %g and %g", ErrInvalidQuantile, o.Q0, o.Q1)
	}

	return nil
}

// PivotTable is an instance by configuration matrix of a run column. Low
// and High are the Q0 and Q1 quantiles of the non-null cells.
type PivotTable struct {
	Column         string
	Instances      []string
	Configurations []string
	Cells          [][]*float64
	Low            float64
	High           float64
}

// Pivot lays a numeric run column out as an instance by configuration
// matrix. Instances are labelled "<problem>/<flatzinc>".
func Pivot(db *database.Database, column string, opts PivotOptions) (*PivotTable, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	runs, err := db.Table(database.TableRun)
	if err != nil {
		return nil, err
	}

	idx, err := numericColumn(runs, column)
	if err != nil {
		return nil, err
	}

	p := &PivotTable{
		Column:         column,
		Instances:      make([]string, len(db.Instances)),
		Configurations: make([]string, len(db.Configurations)),
		Cells:          make([][]*float64, len(db.Instances)),
	}

	for i, inst := range db.Instances {
		p.Instances[i] = db.Problems[inst.ProblemID].Name + "/" + inst.Name
		p.Cells[i] = make([]*float64, len(db.Configurations))
	}

	for i, c := range db.Configurations {
		p.Configurations[i] = c.Name
	}

	values := make([]float64, 0, len(db.Runs))

	for i, run := range db.Runs {
		v, ok := database.Float(runs.Rows[i][idx])
		if !ok {
			continue
		}

		p.Cells[run.InstanceID][run.ConfigurationID] = &v
		values = append(values, v)
	}

	if len(values) > 0 {
		slices.Sort(values)

		p.Low = stat.Quantile(opts.Q0, stat.Empirical, values, nil)
		p.High = stat.Quantile(opts.Q1, stat.Empirical, values, nil)
	}

	return p, nil
}

// Render writes the matrix as a text table. When colored, cells at or
// below Low are green and cells at or above High are red.
func (p *PivotTable) Render(w io.Writer, colored bool) {
	low := color.New(color.FgGreen)
	high := color.New(color.FgRed)

	if !colored {
		low.DisableColor()
		high.DisableColor()
	}

	table := newTable(w, append([]string{p.Column}, p.Configurations...))

	for i, name := range p.Instances {
		row := make([]string, 0, len(p.Configurations)+1)
		row = append(row, name)

		for _, cell := range p.Cells[i] {
			switch {
			case cell == nil:
				row = append(row, "")
			case *cell <= p.Low:
				row = append(row, low.Sprint(formatFloat(*cell)))
			case *cell >= p.High:
				row = append(row, high.Sprint(formatFloat(*cell)))
			default:
				row = append(row, formatFloat(*cell))
			}
		}

		table.Append(row)
	}

	table.Render()
}

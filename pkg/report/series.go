package report

import (
	"fmt"
	"io"

	"github.com/ethpandaops/solverstats/pkg/database"
)

// Point is one event of a curve.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is the event sequence of one run projected on two event columns.
type Curve struct {
	InstanceID    int     `json:"instance_id" yaml:"instance_id"`
	Instance      string  `json:"instance" yaml:"instance"`
	Configuration string  `json:"configuration" yaml:"configuration"`
	X             string  `json:"x" yaml:"x"`
	Y             string  `json:"y" yaml:"y"`
	Points        []Point `json:"points" yaml:"points"`
}

// Series returns, for every run of the given instances, the events where
// both x and y are non-null, in event order. Repeated ids yield one set of
// curves.
func Series(db *database.Database, instanceIDs []int, x, y string) ([]Curve, error) {
	events, err := db.Table(database.TableEvent)
	if err != nil {
		return nil, err
	}

	xi, err := numericColumn(events, x)
	if err != nil {
		return nil, err
	}

	yi, err := numericColumn(events, y)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(instanceIDs))
	seen := make(map[int]struct{}, len(instanceIDs))

	for _, id := range instanceIDs {
		if id < 0 || id >= len(db.Instances) {
			return nil, fmt.Errorf("%d is not a valid flatzinc id, valid values are: 0..%d", id, len(db.Instances)-1)
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	// Runs are ordered by instance, events by run.
	curveOf := make(map[int]int, len(db.Runs))
	curves := make([]Curve, 0, len(ids)*len(db.Configurations))

	for _, id := range ids {
		inst := db.Instances[id]

		for _, run := range db.Runs {
			if run.InstanceID != id {
				continue
			}

			curveOf[run.ID] = len(curves)
			curves = append(curves, Curve{
				InstanceID:    id,
				Instance:      db.Problems[inst.ProblemID].Name + "/" + inst.Name,
				Configuration: db.Configurations[run.ConfigurationID].Name,
				X:             x,
				Y:             y,
				Points:        []Point{},
			})
		}
	}

	for i, e := range db.Events {
		c, ok := curveOf[e.RunID]
		if !ok {
			continue
		}

		xv, okX := database.Float(events.Rows[i][xi])
		yv, okY := database.Float(events.Rows[i][yi])

		if okX && okY {
			curves[c].Points = append(curves[c].Points, Point{X: xv, Y: yv})
		}
	}

	return curves, nil
}

// RenderCurves writes one text table row per curve point.
func RenderCurves(w io.Writer, curves []Curve) {
	if len(curves) == 0 {
		return
	}

	table := newTable(w, []string{"flatzinc", "configuration", curves[0].X, curves[0].Y})

	for _, c := range curves {
		for _, p := range c.Points {
			table.Append([]string{c.Instance, c.Configuration, formatFloat(p.X), formatFloat(p.Y)})
		}
	}

	table.Render()
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/results"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func row(configuration, flatzinc string, typ results.EventType, n uint64, objective *int64, micros int64) results.RawRow {
	return results.RawRow{
		Configuration: configuration,
		Problem:       "P",
		Flatzinc:      flatzinc,
		Type:          typ,
		NumSolutions:  n,
		Objective:     objective,
		Time:          time.Duration(micros) * time.Microsecond,
		NumDecisions:  uint64(micros / 10),
	}
}

func obj(v int64) *int64 {
	return &v
}

func scenario() []results.RawRow {
	return []results.RawRow{
		row("a_b_none", "I", results.EventStart, 0, nil, 0),
		row("a_b_none", "I", results.EventNewSolution, 1, obj(10), 100),
		row("a_b_none", "I", results.EventNewSolution, 2, obj(5), 200),
		row("c_d_luby", "I", results.EventStart, 0, nil, 0),
		row("c_d_luby", "I", results.EventNewSolution, 1, obj(8), 50),
	}
}

func buildDB(t *testing.T, raw []results.RawRow, enrich bool) *database.Database {
	t.Helper()

	db, err := database.Build(testLogger(), raw)
	require.NoError(t, err)

	if !enrich {
		return db
	}

	db, err = database.Enrich(testLogger(), db)
	require.NoError(t, err)

	return db
}

func TestDescribe(t *testing.T) {
	db := buildDB(t, scenario(), false)

	table, err := db.Table(database.TableProblem)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Describe(&buf, table))

	assert.Equal(t, "problem (1, 2):\n - id id\n - name str\n", buf.String())
}

func TestPrint(t *testing.T) {
	db := buildDB(t, scenario(), true)

	table, err := db.Table(database.TableConfiguration)
	require.NoError(t, err)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, table, FormatTable))

		assert.Contains(t, buf.String(), "var_order")
		assert.Contains(t, buf.String(), "a_b_none")
		assert.Contains(t, buf.String(), "luby")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, table, FormatJSON))

		var records []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, "c_d_luby", records[1]["name"])
		assert.InDelta(t, 1.0, records[1]["id"], 1e-9)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Print(&buf, table, FormatYAML))

		var records []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, "none", records[0]["restart"])
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		err := Print(&buf, table, "csv")
		require.ErrorIs(t, err, ErrUnknownFormat)
		require.ErrorIs(t, CheckFormat("csv"), ErrUnknownFormat)
		require.NoError(t, CheckFormat(FormatYAML))
	})
}

func TestPrint_NullCells(t *testing.T) {
	db := buildDB(t, scenario(), false)

	table, err := db.Table(database.TableEvent)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Print(&buf, table, FormatTable))
	assert.Contains(t, buf.String(), "null")
}

func TestPivot(t *testing.T) {
	db := buildDB(t, scenario(), true)

	p, err := Pivot(db, "objective_score", PivotOptions{Q0: DefaultQ0, Q1: DefaultQ1})
	require.NoError(t, err)

	assert.Equal(t, []string{"P/I"}, p.Instances)
	assert.Equal(t, []string{"a_b_none", "c_d_luby"}, p.Configurations)
	require.Len(t, p.Cells, 1)
	require.NotNil(t, p.Cells[0][0])
	require.NotNil(t, p.Cells[0][1])
	assert.InDelta(t, 0.0, *p.Cells[0][0], 1e-9)
	assert.InDelta(t, 0.6, *p.Cells[0][1], 1e-9)
	assert.InDelta(t, 0.0, p.Low, 1e-9)
	assert.InDelta(t, 0.6, p.High, 1e-9)

	var buf bytes.Buffer
	p.Render(&buf, false)
	assert.Contains(t, buf.String(), "P/I")
	assert.Contains(t, buf.String(), "0.6")
}

func TestPivot_MissingRunIsEmptyCell(t *testing.T) {
	raw := append(scenario(), row("a_b_none", "J", results.EventStart, 0, nil, 0))
	db := buildDB(t, raw, true)

	p, err := Pivot(db, "num_solutions", PivotOptions{Q0: 0, Q1: 1})
	require.NoError(t, err)

	require.Len(t, p.Instances, 2)
	require.NotNil(t, p.Cells[1][0])
	assert.Zero(t, *p.Cells[1][0])
	assert.Nil(t, p.Cells[1][1])
}

func TestPivot_Errors(t *testing.T) {
	db := buildDB(t, scenario(), true)

	tests := []struct {
		name    string
		column  string
		opts    PivotOptions
		wantErr error
	}{
		{name: "unknown column", column: "score", opts: PivotOptions{Q0: 0.1, Q1: 0.9}, wantErr: database.ErrUnknownColumn},
		{name: "q0 below zero", column: "autc_score", opts: PivotOptions{Q0: -0.1, Q1: 0.9}, wantErr: ErrInvalidQuantile},
		{name: "q1 above one", column: "autc_score", opts: PivotOptions{Q0: 0.1, Q1: 1.5}, wantErr: ErrInvalidQuantile},
		{name: "q0 above q1", column: "autc_score", opts: PivotOptions{Q0: 0.9, Q1: 0.1}, wantErr: ErrInvalidQuantile},
		{name: "q0 equals q1", column: "autc_score", opts: PivotOptions{Q0: 0.5, Q1: 0.5}, wantErr: ErrInvalidQuantile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Pivot(db, tt.column, tt.opts)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBoxStats(t *testing.T) {
	raw := make([]results.RawRow, 0, 32)

	// Instance Ik gets k solutions from configuration a_b_c.
	for k := 1; k <= 5; k++ {
		flatzinc := fmt.Sprintf("I%d", k)

		raw = append(raw, row("a_b_c", flatzinc, results.EventStart, 0, nil, 0))
		for n := 1; n <= k; n++ {
			raw = append(raw, row("a_b_c", flatzinc, results.EventNewSolution, uint64(n), obj(int64(10-n)), int64(10*n)))
		}
	}

	raw = append(raw, row("d_e_f", "I1", results.EventStart, 0, nil, 0))

	db := buildDB(t, raw, true)

	boxes, err := BoxStats(db, "num_solutions")
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, Box{
		Configuration: "a_b_c",
		Count:         5,
		Min:           1,
		Q1:            2,
		Median:        3,
		Q3:            4,
		Max:           5,
		Mean:          3,
	}, boxes[0])
	assert.Equal(t, "d_e_f", boxes[1].Configuration)
	assert.Equal(t, 1, boxes[1].Count)

	// d_e_f has no solution, so no objective score.
	boxes, err = BoxStats(db, "objective_score")
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, "a_b_c", boxes[0].Configuration)

	var buf bytes.Buffer
	RenderBoxes(&buf, boxes)
	assert.Contains(t, buf.String(), "median")
	assert.Contains(t, buf.String(), "a_b_c")
}

func TestSeries(t *testing.T) {
	db := buildDB(t, scenario(), false)

	curves, err := Series(db, []int{0}, "time", "objective")
	require.NoError(t, err)
	require.Len(t, curves, 2)

	assert.Equal(t, "P/I", curves[0].Instance)
	assert.Equal(t, "a_b_none", curves[0].Configuration)
	assert.Equal(t, []Point{{X: 100, Y: 10}, {X: 200, Y: 5}}, curves[0].Points)

	assert.Equal(t, "c_d_luby", curves[1].Configuration)
	assert.Equal(t, []Point{{X: 50, Y: 8}}, curves[1].Points)

	var buf bytes.Buffer
	RenderCurves(&buf, curves)
	assert.Contains(t, buf.String(), "objective")
	assert.Contains(t, buf.String(), "200")
}

func TestSeries_RepeatedIDs(t *testing.T) {
	db := buildDB(t, scenario(), false)

	curves, err := Series(db, []int{0, 0}, "time", "objective")
	require.NoError(t, err)
	require.Len(t, curves, 2)

	assert.Equal(t, []Point{{X: 100, Y: 10}, {X: 200, Y: 5}}, curves[0].Points)
	assert.Equal(t, []Point{{X: 50, Y: 8}}, curves[1].Points)
}

func TestSeries_Errors(t *testing.T) {
	db := buildDB(t, scenario(), false)

	_, err := Series(db, []int{3}, "time", "objective")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 is not a valid flatzinc id")

	_, err = Series(db, []int{0}, "time", "type")
	require.ErrorIs(t, err, ErrNotNumeric)

	_, err = Series(db, []int{0}, "clock", "objective")
	require.ErrorIs(t, err, database.ErrUnknownColumn)
}

func TestMarkdown(t *testing.T) {
	t.Run("enriched", func(t *testing.T) {
		md := Markdown(buildDB(t, scenario(), true), "")

		assert.Contains(t, md, "# Solver Results")
		assert.Contains(t, md, "| event | 5 |")
		assert.Contains(t, md, "Enriched: yes")
		assert.Contains(t, md, "| P | ↓ minimize | 1 |")
		assert.Contains(t, md, "| a_b_none | 1 | 1 | 0.000 | 0.333 | 0.333 |")
		assert.Contains(t, md, "| c_d_luby | 1 | 1 | 0.600 | 0.600 | 0.600 |")
	})

	t.Run("raw", func(t *testing.T) {
		md := Markdown(buildDB(t, scenario(), false), "nightly")

		assert.Contains(t, md, "# nightly")
		assert.Contains(t, md, "Enriched: no")
		assert.Contains(t, md, "| P | - | 1 |")
		assert.Contains(t, md, "| a_b_none | a | b | none | 1 |")
	})
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{value: 0, expected: "0"},
		{value: 123456789, expected: "123456789"},
		{value: 0.6, expected: "0.6"},
		{value: 1.0 / 3.0, expected: "0.3333"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.value))
		})
	}
}

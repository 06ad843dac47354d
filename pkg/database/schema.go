package database

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/solverstats/pkg/results"
)

// Column types reported by table schemas.
const (
	TypeID       = "id"
	TypeString   = "str"
	TypeUint     = "u64"
	TypeInt      = "i64"
	TypeFloat    = "f64"
	TypeDuration = "duration[μs]"
	TypeEvent    = "enum[start,new_solution]"
	TypeProblem  = "enum[minimize,maximize]"
)

// Table names, in display order.
const (
	TableRaw           = "raw"
	TableProblem       = "problem"
	TableFlatzinc      = "flatzinc"
	TableConfiguration = "configuration"
	TableRun           = "run"
	TableEvent         = "event"
)

// TableNames lists every table of a Database.
var TableNames = []string{
	TableRaw,
	TableProblem,
	TableFlatzinc,
	TableConfiguration,
	TableRun,
	TableEvent,
}

// Column describes one table column.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Table is a read-only row view of one Database table. Null cells are nil.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}

	return names
}

// ColumnIndex returns the position of a column, or an error listing the
// valid columns.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, nil
		}
	}

	return -1, fmt.Errorf(
		"%w: '%s' is not a valid column for %s table, valid values are: %s",
		ErrUnknownColumn, name, t.Name, strings.Join(t.ColumnNames(), ", "),
	)
}

// CheckColumn returns an error if the table has no column of that name.
func (t *Table) CheckColumn(name string) error {
	_, err := t.ColumnIndex(name)

	return err
}

// Column returns every cell of a column.
func (t *Table) Column(name string) ([]any, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}

	cells := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = row[idx]
	}

	return cells, nil
}

// Filter returns the rows whose column equals value, compared on the
// canonical text of the cell (see FormatCell).
func (t *Table) Filter(column, value string) (*Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}

	out := &Table{Name: t.Name, Columns: t.Columns, Rows: make([][]any, 0, 16)}

	for _, row := range t.Rows {
		if FormatCell(row[idx]) == value {
			out.Rows = append(out.Rows, row)
		}
	}

	return out, nil
}

// Records returns the rows as column name to scalar maps.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, len(t.Rows))

	for i, row := range t.Rows {
		record := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			record[c.Name] = Scalar(row[j])
		}

		records[i] = record
	}

	return records
}

// Scalar converts a cell to a plain JSON/YAML friendly value: durations
// become integer microseconds and enums their names.
func Scalar(v any) any {
	switch x := v.(type) {
	case time.Duration:
		return x.Microseconds()
	case ProblemType:
		return string(x)
	case results.EventType:
		return x.String()
	default:
		return v
	}
}

// FormatCell returns the canonical text of a cell; nil is "null".
func FormatCell(v any) string {
	switch x := Scalar(v).(type) {
	case nil:
		return "null"
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Table returns the named table. "flatzinc" is also available as "instance".
func (db *Database) Table(name string) (*Table, error) {
	switch strings.TrimSuffix(name, "_df") {
	case TableRaw:
		return db.rawTable(), nil
	case TableProblem:
		return db.problemTable(), nil
	case TableFlatzinc, "instance":
		return db.flatzincTable(), nil
	case TableConfiguration:
		return db.configurationTable(), nil
	case TableRun:
		return db.runTable(), nil
	case TableEvent:
		return db.eventTable(), nil
	default:
		return nil, fmt.Errorf(
			"%w: '%s' is not a valid table name, valid values are: %s",
			ErrUnknownTable, name, strings.Join(TableNames, ", "),
		)
	}
}

// Tables returns every table in TableNames order.
func (db *Database) Tables() []*Table {
	tables := make([]*Table, 0, len(TableNames))
	for _, name := range TableNames {
		t, _ := db.Table(name)
		tables = append(tables, t)
	}

	return tables
}

func opt[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}

func objectiveColumns() []Column {
	return []Column{
		{"objective_lb", TypeInt},
		{"objective_ub", TypeInt},
		{"objective_bb", TypeInt},
		{"objective_wb", TypeInt},
	}
}

func objectiveCells(b *ObjectiveBounds) []any {
	if b == nil {
		return []any{nil, nil, nil, nil}
	}

	return []any{b.LB, b.UB, b.BB, b.WB}
}

func solutionColumns() []Column {
	cols := make([]Column, 0, 2*len(Metrics))

	for _, m := range Metrics {
		typ := TypeUint
		if m == MetricTime {
			typ = TypeDuration
		}

		cols = append(cols, Column{m.Column() + "_fsol", typ}, Column{m.Column() + "_lsol", typ})
	}

	return cols
}

func solutionCells(bounds func(Metric) *SolutionBounds) []any {
	cells := make([]any, 0, 2*len(Metrics))

	for _, m := range Metrics {
		b := bounds(m)
		if b == nil {
			cells = append(cells, nil, nil)

			continue
		}

		cells = append(cells, m.cell(b.FSol), m.cell(b.LSol))
	}

	return cells
}

func (db *Database) rawTable() *Table {
	t := &Table{
		Name: TableRaw,
		Columns: []Column{
			{"configuration", TypeString},
			{"problem", TypeString},
			{"flatzinc", TypeString},
			{"type", TypeEvent},
			{"num_solutions", TypeUint},
			{"objective", TypeInt},
			{"time", TypeDuration},
			{"num_decisions", TypeUint},
			{"num_conflicts", TypeUint},
			{"num_dom_updates", TypeUint},
			{"num_restarts", TypeUint},
		},
		Rows: make([][]any, len(db.Raw)),
	}

	for i, r := range db.Raw {
		t.Rows[i] = []any{
			r.Configuration, r.Problem, r.Flatzinc, r.Type, r.NumSolutions,
			opt(r.Objective), r.Time, r.NumDecisions, r.NumConflicts,
			r.NumDomUpdates, r.NumRestarts,
		}
	}

	return t
}

func (db *Database) problemTable() *Table {
	t := &Table{
		Name:    TableProblem,
		Columns: []Column{{"id", TypeID}, {"name", TypeString}},
		Rows:    make([][]any, len(db.Problems)),
	}

	if db.enriched {
		t.Columns = append(t.Columns, Column{"type", TypeProblem})
	}

	for i, p := range db.Problems {
		t.Rows[i] = []any{p.ID, p.Name}
		if db.enriched {
			t.Rows[i] = append(t.Rows[i], p.Type)
		}
	}

	return t
}

func (db *Database) flatzincTable() *Table {
	t := &Table{
		Name:    TableFlatzinc,
		Columns: []Column{{"id", TypeID}, {"name", TypeString}, {"problem.id", TypeID}},
		Rows:    make([][]any, len(db.Instances)),
	}

	if db.enriched {
		t.Columns = append(t.Columns, Column{"problem.type", TypeProblem})
		t.Columns = append(t.Columns, objectiveColumns()...)
		t.Columns = append(t.Columns, solutionColumns()...)
	}

	for i := range db.Instances {
		inst := &db.Instances[i]

		row := []any{inst.ID, inst.Name, inst.ProblemID}
		if db.enriched {
			row = append(row, inst.ProblemType)
			row = append(row, objectiveCells(inst.Objective)...)
			row = append(row, solutionCells(inst.SolutionBounds)...)
		}

		t.Rows[i] = row
	}

	return t
}

func (db *Database) configurationTable() *Table {
	t := &Table{
		Name: TableConfiguration,
		Columns: []Column{
			{"id", TypeID},
			{"name", TypeString},
			{"var_order", TypeString},
			{"value_order", TypeString},
			{"restart", TypeString},
		},
		Rows: make([][]any, len(db.Configurations)),
	}

	for i, c := range db.Configurations {
		t.Rows[i] = []any{c.ID, c.Name, c.VarOrder, c.ValueOrder, c.Restart}
	}

	return t
}

func (db *Database) runTable() *Table {
	t := &Table{
		Name:    TableRun,
		Columns: []Column{{"id", TypeID}, {"flatzinc.id", TypeID}, {"configuration.id", TypeID}},
		Rows:    make([][]any, len(db.Runs)),
	}

	if db.enriched {
		t.Columns = append(t.Columns, objectiveColumns()...)
		t.Columns = append(t.Columns, Column{"num_solutions", TypeUint}, Column{"objective_score", TypeFloat})
		t.Columns = append(t.Columns, solutionColumns()...)

		for _, m := range Metrics {
			t.Columns = append(t.Columns, Column{m.ScoreColumn(), TypeFloat})
		}
	}

	for i := range db.Runs {
		run := &db.Runs[i]

		row := []any{run.ID, run.InstanceID, run.ConfigurationID}
		if db.enriched {
			row = append(row, objectiveCells(run.Objective)...)
			row = append(row, run.NumSolutions, opt(run.ObjectiveScore))
			row = append(row, solutionCells(run.SolutionBounds)...)

			for _, m := range Metrics {
				row = append(row, opt(run.AUCScore(m)))
			}
		}

		t.Rows[i] = row
	}

	return t
}

func (db *Database) eventTable() *Table {
	t := &Table{
		Name: TableEvent,
		Columns: []Column{
			{"id", TypeID},
			{"run.id", TypeID},
			{"type", TypeEvent},
			{"num_solutions", TypeUint},
			{"objective", TypeInt},
			{"time", TypeDuration},
			{"num_decisions", TypeUint},
			{"num_conflicts", TypeUint},
			{"num_dom_updates", TypeUint},
			{"num_restarts", TypeUint},
		},
		Rows: make([][]any, len(db.Events)),
	}

	for i, e := range db.Events {
		t.Rows[i] = []any{
			e.ID, e.RunID, e.Type, e.NumSolutions, opt(e.Objective), e.Time,
			e.NumDecisions, e.NumConflicts, e.NumDomUpdates, e.NumRestarts,
		}
	}

	return t
}

// IsNumeric reports whether cells of the column type convert to float64.
func IsNumeric(typ string) bool {
	return slices.Contains([]string{TypeID, TypeUint, TypeInt, TypeFloat, TypeDuration}, typ)
}

// Float converts a numeric cell to float64. Durations are microseconds.
func Float(v any) (float64, bool) {
	switch x := Scalar(v).(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

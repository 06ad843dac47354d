package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "problem,flatzinc,type,num_solutions,objective,time,num_decisions,num_conflicts,num_dom_updates,num_restarts\n"

func writeResults(t *testing.T, root, configuration, body string) {
	t.Helper()

	dir := filepath.Join(root, configuration)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResultsFile), []byte(body), 0o644))
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func TestLoad_ConcatenatesConfigurations(t *testing.T) {
	root := t.TempDir()

	writeResults(t, root, "c_d_luby", header+
		"P,I,start,0,,0,0,0,0,0\n"+
		"P,I,new_solution,1,8,50,3,1,7,0\n")
	writeResults(t, root, "a_b_none", header+
		"P,I,start,0,,0,0,0,0,0\n"+
		"P,I,new_solution,1,10,100,4,2,9,0\n"+
		"P,I,new_solution,2,5,200,8,3,11,1\n")

	// Plain files next to configuration directories are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0o644))

	rows, err := Load(testLogger(), root)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "a_b_none", rows[0].Configuration)
	assert.Equal(t, "c_d_luby", rows[4].Configuration)

	assert.Equal(t, EventStart, rows[0].Type)
	assert.Nil(t, rows[0].Objective)

	second := rows[2]
	assert.Equal(t, EventNewSolution, second.Type)
	require.NotNil(t, second.Objective)
	assert.Equal(t, int64(5), *second.Objective)
	assert.Equal(t, 200*time.Microsecond, second.Time)
	assert.Equal(t, uint64(2), second.NumSolutions)
	assert.Equal(t, uint64(8), second.NumDecisions)
	assert.Equal(t, uint64(3), second.NumConflicts)
	assert.Equal(t, uint64(11), second.NumDomUpdates)
	assert.Equal(t, uint64(1), second.NumRestarts)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(testLogger(), t.TempDir())
	require.ErrorIs(t, err, ErrNoResults)
}

func TestParse_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing column",
			body: "problem,flatzinc,type,num_solutions,objective,time\n",
		},
		{
			name: "reordered columns",
			body: "flatzinc,problem,type,num_solutions,objective,time,num_decisions,num_conflicts,num_dom_updates,num_restarts\n",
		},
		{
			name: "empty file",
			body: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.body), "results.csv", "a_b_c")

			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, ExpectedColumns, schemaErr.Expected)
			assert.Equal(t, "configuration", schemaErr.Actual[0])
		})
	}
}

func TestParse_BadCells(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		column string
	}{
		{name: "unknown type", row: "P,I,restart,0,,0,0,0,0,0", column: "type"},
		{name: "negative counter", row: "P,I,start,-1,,0,0,0,0,0", column: "num_solutions"},
		{name: "float objective", row: "P,I,new_solution,1,1.5,0,0,0,0,0", column: "objective"},
		{name: "bad time", row: "P,I,start,0,,soon,0,0,0,0", column: "time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(header+tt.row+"\n"), "results.csv", "a_b_c")

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.column, parseErr.Column)
			assert.Equal(t, 2, parseErr.Line)
		})
	}
}

func TestParseEventType(t *testing.T) {
	typ, err := ParseEventType("new_solution")
	require.NoError(t, err)
	assert.Equal(t, EventNewSolution, typ)
	assert.Equal(t, "new_solution", typ.String())

	_, err = ParseEventType("stop")
	assert.Error(t, err)
}

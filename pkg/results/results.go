package results

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ResultsFile is the file name expected inside every configuration directory.
const ResultsFile = "results.csv"

// ExpectedColumns is the column list of the concatenated raw table. The
// configuration column comes from the directory name, not from the file.
var ExpectedColumns = []string{
	"configuration",
	"problem",
	"flatzinc",
	"type",
	"num_solutions",
	"objective",
	"time",
	"num_decisions",
	"num_conflicts",
	"num_dom_updates",
	"num_restarts",
}

// ErrNoResults is returned when a results directory holds no configuration.
var ErrNoResults = errors.New("no configuration directory found")

// EventType is the closed set of solver events found in a results file.
type EventType uint8

const (
	// EventStart marks the start of a solver run.
	EventStart EventType = iota
	// EventNewSolution marks a new (improving) solution.
	EventNewSolution
)

// String returns the CSV spelling of the event type.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventNewSolution:
		return "new_solution"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseEventType parses the CSV spelling of an event type.
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "start":
		return EventStart, nil
	case "new_solution":
		return EventNewSolution, nil
	default:
		return 0, fmt.Errorf("unknown event type %q (valid values are: start, new_solution)", s)
	}
}

// RawRow is one line of a results file tagged with its configuration.
type RawRow struct {
	Configuration string
	Problem       string
	Flatzinc      string
	Type          EventType
	NumSolutions  uint64
	// Objective is nil when the cell is empty.
	Objective     *int64
	Time          time.Duration
	NumDecisions  uint64
	NumConflicts  uint64
	NumDomUpdates uint64
	NumRestarts   uint64
}

// SchemaError reports a results file whose columns do not match
// ExpectedColumns.
type SchemaError struct {
	File     string
	Expected []string
	Actual   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf(
		"unexpected columns in %s: expected [%s], got [%s]",
		e.File,
		strings.Join(e.Expected, ", "),
		strings.Join(e.Actual, ", "),
	)
}

// ParseError reports a cell that cannot be cast to its column type.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: column %s: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

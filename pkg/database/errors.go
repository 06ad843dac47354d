package database

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyEnriched is returned when Enrich is called twice.
	ErrAlreadyEnriched = errors.New("database is already enriched")

	// ErrUnknownTable is returned for a table name the database does not have.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned for a column name a table does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// RunRef names a run by its problem, instance and configuration.
type RunRef struct {
	Problem       string
	Flatzinc      string
	Configuration string
}

func (r RunRef) String() string {
	return fmt.Sprintf("'%s' from '%s' run with '%s'", r.Flatzinc, r.Problem, r.Configuration)
}

func joinRefs(refs []RunRef) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, ref.String())
	}

	return strings.Join(parts, "; ")
}

// ConfigurationNameError lists configurations not of the form
// varorder_valueorder_restart.
type ConfigurationNameError struct {
	Names []string
}

func (e *ConfigurationNameError) Error() string {
	return fmt.Sprintf(
		"configurations not of the form varorder_valueorder_restart: %s",
		strings.Join(e.Names, ", "),
	)
}

// IntegrityError reports a violated uniqueness or foreign key constraint.
type IntegrityError struct {
	Table  string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation in %s table: %s", e.Table, e.Detail)
}

// JoinMissError lists raw rows that do not resolve to a run.
type JoinMissError struct {
	Rows []RunRef
}

func (e *JoinMissError) Error() string {
	return fmt.Sprintf("%d raw rows do not resolve to a run: %s", len(e.Rows), joinRefs(e.Rows))
}

// MonotonicityError lists runs whose objective both increases and decreases.
type MonotonicityError struct {
	Runs []RunRef
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("objective is not monotonic for %s", joinRefs(e.Runs))
}

// ProblemDirection counts increasing and decreasing runs of a problem.
type ProblemDirection struct {
	Problem    string
	Increasing int
	Decreasing int
}

// DirectionError lists problems having both increasing and decreasing runs.
type DirectionError struct {
	Problems []ProblemDirection
}

func (e *DirectionError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf(
			"problem '%s' has %d decreasing runs and %d increasing",
			p.Problem, p.Decreasing, p.Increasing,
		))
	}

	return strings.Join(parts, "; ")
}

// BoundsError reports a run whose bounds fall outside its instance bounds.
type BoundsError struct {
	RunID  int
	Metric string
	Detail string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("run %d (%s): %s", e.RunID, e.Metric, e.Detail)
}

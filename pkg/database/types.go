package database

import (
	"fmt"
	"time"

	"github.com/ethpandaops/solverstats/pkg/results"
)

// ProblemType is the optimization direction of a problem.
type ProblemType string

const (
	// ProblemTypeUnknown is the type of a problem before enrichment.
	ProblemTypeUnknown ProblemType = ""
	// Minimize problems have non-increasing objective sequences.
	Minimize ProblemType = "minimize"
	// Maximize problems have non-decreasing objective sequences.
	Maximize ProblemType = "maximize"
)

// ProblemTypeArrows maps each problem type to its display glyph.
var ProblemTypeArrows = map[ProblemType]string{
	Maximize: "↑",
	Minimize: "↓",
}

// Arrow returns the display glyph of the problem type, or "" if unknown.
func (t ProblemType) Arrow() string {
	return ProblemTypeArrows[t]
}

// Metric is a numeric event column a solution curve can be drawn against.
type Metric int

const (
	// MetricTime is the elapsed time, in microseconds.
	MetricTime Metric = iota
	// MetricDecisions is the number of search decisions.
	MetricDecisions
)

// Metrics lists every metric in enrichment order.
var Metrics = []Metric{MetricTime, MetricDecisions}

// Column returns the event column name of the metric.
func (m Metric) Column() string {
	switch m {
	case MetricTime:
		return "time"
	case MetricDecisions:
		return "num_decisions"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ScoreColumn returns the run column holding the area-under-curve score.
func (m Metric) ScoreColumn() string {
	switch m {
	case MetricTime:
		return "autc_score"
	case MetricDecisions:
		return "audc_score"
	default:
		return fmt.Sprintf("Metric(%d)_score", int(m))
	}
}

// value returns the metric of an event in its integer unit.
func (m Metric) value(e *Event) int64 {
	if m == MetricTime {
		return e.Time.Microseconds()
	}

	return int64(e.NumDecisions)
}

// cell converts a metric value back to its table representation.
func (m Metric) cell(v int64) any {
	if m == MetricTime {
		return time.Duration(v) * time.Microsecond
	}

	return uint64(v)
}

// ObjectiveBounds holds the objective range seen by a run or an instance.
// BB and WB are the best and worst bounds for the problem direction.
type ObjectiveBounds struct {
	LB int64
	UB int64
	BB int64
	WB int64
}

// SolutionBounds holds the metric value at the first and last solution.
type SolutionBounds struct {
	FSol int64
	LSol int64
}

// Problem is a family of instances sharing an optimization direction.
type Problem struct {
	ID   int
	Name string
	Type ProblemType
}

// Instance is one flatzinc model of a problem.
type Instance struct {
	ID          int
	Name        string
	ProblemID   int
	ProblemType ProblemType
	Objective   *ObjectiveBounds
	Time        *SolutionBounds
	Decisions   *SolutionBounds
}

// SolutionBounds returns the first/last solution bounds of the metric.
func (i *Instance) SolutionBounds(m Metric) *SolutionBounds {
	if m == MetricTime {
		return i.Time
	}

	return i.Decisions
}

func (i *Instance) setSolutionBounds(m Metric, b *SolutionBounds) {
	if m == MetricTime {
		i.Time = b
	} else {
		i.Decisions = b
	}
}

// Configuration is a solver parameterization named
// "<var_order>_<value_order>_<restart>".
type Configuration struct {
	ID         int
	Name       string
	VarOrder   string
	ValueOrder string
	Restart    string
}

// Run is the execution of one configuration on one instance.
type Run struct {
	ID              int
	InstanceID      int
	ConfigurationID int

	Objective      *ObjectiveBounds
	NumSolutions   uint64
	ObjectiveScore *float64
	Time           *SolutionBounds
	Decisions      *SolutionBounds
	AUTCScore      *float64
	AUDCScore      *float64
}

// SolutionBounds returns the first/last solution bounds of the metric.
func (r *Run) SolutionBounds(m Metric) *SolutionBounds {
	if m == MetricTime {
		return r.Time
	}

	return r.Decisions
}

// AUCScore returns the area-under-curve score of the metric.
func (r *Run) AUCScore(m Metric) *float64 {
	if m == MetricTime {
		return r.AUTCScore
	}

	return r.AUDCScore
}

func (r *Run) setSolutionBounds(m Metric, b *SolutionBounds) {
	if m == MetricTime {
		r.Time = b
	} else {
		r.Decisions = b
	}
}

func (r *Run) setAUCScore(m Metric, score *float64) {
	if m == MetricTime {
		r.AUTCScore = score
	} else {
		r.AUDCScore = score
	}
}

// Event is one solver event of a run. Events are never modified once built.
type Event struct {
	ID            int
	RunID         int
	Type          results.EventType
	NumSolutions  uint64
	Objective     *int64
	Time          time.Duration
	NumDecisions  uint64
	NumConflicts  uint64
	NumDomUpdates uint64
	NumRestarts   uint64
}

// isSolution reports whether the event is a new solution carrying an
// objective value. The objective of start events is not meaningful.
func (e *Event) isSolution() bool {
	return e.Type == results.EventNewSolution && e.Objective != nil
}

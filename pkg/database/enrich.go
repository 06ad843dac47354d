package database

import (
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"
)

// Enrich derives problem types, objective bounds, solution counts and
// scores. It returns a new Database; db itself is left untouched. Enrich
// fails with ErrAlreadyEnriched on an enriched Database.
func Enrich(log logrus.FieldLogger, db *Database) (*Database, error) {
	if db.enriched {
		return nil, ErrAlreadyEnriched
	}

	log = log.WithField("component", "enrich")

	byRun := groupEvents(db.Events, len(db.Runs))

	problems, err := inferProblemTypes(log, db, byRun)
	if err != nil {
		return nil, err
	}

	instances := propagateProblemType(db.Instances, problems)

	runs, instances := addObjectiveBounds(db.Runs, instances, byRun)
	runs = addNumSolutions(runs, byRun)
	runs = addObjectiveScore(runs, instances)

	for _, m := range Metrics {
		runs, instances = addSolutionBounds(m, runs, instances, byRun)
	}

	for _, m := range Metrics {
		runs, err = addAUCScore(m, runs, instances, byRun)
		if err != nil {
			return nil, err
		}
	}

	log.WithField("runs", len(runs)).Debug("Database enriched")

	return &Database{
		Raw:            db.Raw,
		Problems:       problems,
		Instances:      instances,
		Configurations: db.Configurations,
		Runs:           runs,
		Events:         db.Events,
		enriched:       true,
	}, nil
}

// groupEvents splits the (run id, time) ordered event log per run id.
func groupEvents(events []Event, numRuns int) [][]Event {
	byRun := make([][]Event, numRuns)

	start := 0
	for i := 1; i <= len(events); i++ {
		if i < len(events) && events[i].RunID == events[start].RunID {
			continue
		}

		runID := events[start].RunID
		if runID >= 0 && runID < numRuns {
			byRun[runID] = events[start:i]
		}

		start = i
	}

	return byRun
}

// direction reports whether consecutive solution objectives ever increase
// and ever decrease.
func direction(events []Event) (increase, decrease bool) {
	var prev *int64

	for i := range events {
		if !events[i].isSolution() {
			continue
		}

		cur := events[i].Objective
		if prev != nil {
			switch {
			case *cur > *prev:
				increase = true
			case *cur < *prev:
				decrease = true
			}
		}

		prev = cur
	}

	return increase, decrease
}

func (db *Database) runRef(run *Run) RunRef {
	inst := &db.Instances[run.InstanceID]

	return RunRef{
		Problem:       db.Problems[inst.ProblemID].Name,
		Flatzinc:      inst.Name,
		Configuration: db.Configurations[run.ConfigurationID].Name,
	}
}

// inferProblemTypes sets the type of every problem from the direction of
// its runs' objectives.
func inferProblemTypes(log logrus.FieldLogger, db *Database, byRun [][]Event) ([]Problem, error) {
	var (
		counts       = make([]ProblemDirection, len(db.Problems))
		nonMonotonic []RunRef
	)

	for i := range db.Problems {
		counts[i].Problem = db.Problems[i].Name
	}

	for i := range db.Runs {
		run := &db.Runs[i]
		increase, decrease := direction(byRun[run.ID])

		if increase && decrease {
			ref := db.runRef(run)

			log.WithField("run", ref.String()).Error("Objective value is not monotonic")

			nonMonotonic = append(nonMonotonic, ref)

			continue
		}

		problemID := db.Instances[run.InstanceID].ProblemID
		if increase {
			counts[problemID].Increasing++
		}

		if decrease {
			counts[problemID].Decreasing++
		}
	}

	if len(nonMonotonic) > 0 {
		return nil, &MonotonicityError{Runs: nonMonotonic}
	}

	var both []ProblemDirection

	for _, c := range counts {
		if c.Increasing != 0 && c.Decreasing != 0 {
			log.WithFields(logrus.Fields{
				"problem":    c.Problem,
				"increasing": c.Increasing,
				"decreasing": c.Decreasing,
			}).Error("Problem has both increasing and decreasing runs")

			both = append(both, c)
		}
	}

	if len(both) > 0 {
		return nil, &DirectionError{Problems: both}
	}

	problems := slices.Clone(db.Problems)
	for i := range problems {
		problems[i].Type = Minimize
		if counts[i].Increasing > 0 {
			problems[i].Type = Maximize
		}
	}

	return problems, nil
}

func propagateProblemType(instances []Instance, problems []Problem) []Instance {
	out := slices.Clone(instances)
	for i := range out {
		out[i].ProblemType = problems[out[i].ProblemID].Type
	}

	return out
}

// orient fills the best and worst bounds for the problem direction.
func orient(b *ObjectiveBounds, typ ProblemType) {
	if typ == Minimize {
		b.BB, b.WB = b.LB, b.UB
	} else {
		b.BB, b.WB = b.UB, b.LB
	}
}

func addObjectiveBounds(runs []Run, instances []Instance, byRun [][]Event) ([]Run, []Instance) {
	runs = slices.Clone(runs)
	instances = slices.Clone(instances)

	for i := range runs {
		var bounds *ObjectiveBounds

		for _, e := range byRun[runs[i].ID] {
			if !e.isSolution() {
				continue
			}

			if bounds == nil {
				bounds = &ObjectiveBounds{LB: *e.Objective, UB: *e.Objective}

				continue
			}

			bounds.LB = min(bounds.LB, *e.Objective)
			bounds.UB = max(bounds.UB, *e.Objective)
		}

		if bounds != nil {
			orient(bounds, instances[runs[i].InstanceID].ProblemType)
		}

		runs[i].Objective = bounds
	}

	for i := range instances {
		instances[i].Objective = nil
	}

	for i := range runs {
		rb := runs[i].Objective
		if rb == nil {
			continue
		}

		inst := &instances[runs[i].InstanceID]
		if inst.Objective == nil {
			inst.Objective = &ObjectiveBounds{LB: rb.LB, UB: rb.UB}

			continue
		}

		merged := *inst.Objective
		merged.LB = min(merged.LB, rb.LB)
		merged.UB = max(merged.UB, rb.UB)
		inst.Objective = &merged
	}

	for i := range instances {
		if instances[i].Objective != nil {
			orient(instances[i].Objective, instances[i].ProblemType)
		}
	}

	return runs, instances
}

func addNumSolutions(runs []Run, byRun [][]Event) []Run {
	runs = slices.Clone(runs)

	for i := range runs {
		var n uint64
		for _, e := range byRun[runs[i].ID] {
			n = max(n, e.NumSolutions)
		}

		runs[i].NumSolutions = n
	}

	return runs
}

// addObjectiveScore sets |run.bb - instance.bb| / (instance.ub - instance.lb),
// or 0 when the instance range is empty.
func addObjectiveScore(runs []Run, instances []Instance) []Run {
	runs = slices.Clone(runs)

	for i := range runs {
		rb := runs[i].Objective
		ib := instances[runs[i].InstanceID].Objective

		if rb == nil || ib == nil {
			runs[i].ObjectiveScore = nil

			continue
		}

		score := 0.0
		if width := ib.UB - ib.LB; width != 0 {
			score = math.Abs(float64(rb.BB-ib.BB)) / float64(width)
		}

		runs[i].ObjectiveScore = &score
	}

	return runs
}

// addSolutionBounds sets the metric value of the first and last solution
// of every run, then the widest window over the runs of each instance.
func addSolutionBounds(m Metric, runs []Run, instances []Instance, byRun [][]Event) ([]Run, []Instance) {
	runs = slices.Clone(runs)
	instances = slices.Clone(instances)

	for i := range runs {
		var bounds *SolutionBounds

		for j := range byRun[runs[i].ID] {
			e := &byRun[runs[i].ID][j]
			if !e.isSolution() {
				continue
			}

			v := m.value(e)
			if bounds == nil {
				bounds = &SolutionBounds{FSol: v, LSol: v}

				continue
			}

			bounds.FSol = min(bounds.FSol, v)
			bounds.LSol = max(bounds.LSol, v)
		}

		runs[i].setSolutionBounds(m, bounds)
	}

	for i := range instances {
		instances[i].setSolutionBounds(m, nil)
	}

	for i := range runs {
		rb := runs[i].SolutionBounds(m)
		if rb == nil {
			continue
		}

		inst := &instances[runs[i].InstanceID]

		ib := inst.SolutionBounds(m)
		if ib == nil {
			inst.setSolutionBounds(m, &SolutionBounds{FSol: rb.FSol, LSol: rb.LSol})

			continue
		}

		inst.setSolutionBounds(m, &SolutionBounds{
			FSol: min(ib.FSol, rb.FSol),
			LSol: max(ib.LSol, rb.LSol),
		})
	}

	return runs, instances
}

// areaUnderCurve integrates the solution step curve of a run against the
// metric: the sum of objective * (x - previous x) over its solutions.
func areaUnderCurve(m Metric, events []Event) float64 {
	var (
		area  float64
		prevX int64
		first = true
	)

	for i := range events {
		e := &events[i]
		if !e.isSolution() {
			continue
		}

		x := m.value(e)
		if !first {
			area += float64(*e.Objective) * float64(x-prevX)
		}

		prevX = x
		first = false
	}

	return area
}

// addAUCScore sets the area-under-curve score of every run with at least
// one solution. The run curve is extended to the instance solution window
// with its worst bound before its first solution and its best bound after
// its last one, then compared with the instance bounding rectangle.
func addAUCScore(m Metric, runs []Run, instances []Instance, byRun [][]Event) ([]Run, error) {
	runs = slices.Clone(runs)

	for i := range runs {
		run := &runs[i]
		inst := &instances[run.InstanceID]

		rsol, robj := run.SolutionBounds(m), run.Objective
		isol, iobj := inst.SolutionBounds(m), inst.Objective

		if rsol == nil || robj == nil {
			run.setAUCScore(m, nil)

			continue
		}

		if isol == nil || iobj == nil {
			return nil, &BoundsError{RunID: run.ID, Metric: m.Column(), Detail: "instance has no solution bounds"}
		}

		if err := checkContained(run.ID, m, rsol, robj, isol, iobj); err != nil {
			return nil, err
		}

		area := areaUnderCurve(m, byRun[run.ID]) +
			float64(rsol.FSol-isol.FSol)*float64(robj.WB) +
			float64(isol.LSol-rsol.LSol)*float64(robj.BB) -
			float64(isol.LSol-isol.FSol)*float64(iobj.LB)

		rectangle := float64(iobj.UB-iobj.LB) * float64(isol.LSol-isol.FSol)

		score := 0.0
		if rectangle != 0 {
			ratio := area / rectangle

			score = ratio
			if inst.ProblemType != Minimize {
				score = 1.0 - ratio
			}
		}

		run.setAUCScore(m, &score)
	}

	return runs, nil
}

func checkContained(runID int, m Metric, rsol *SolutionBounds, robj *ObjectiveBounds, isol *SolutionBounds, iobj *ObjectiveBounds) error {
	fail := func(format string, args ...any) error {
		return &BoundsError{RunID: runID, Metric: m.Column(), Detail: fmt.Sprintf(format, args...)}
	}

	switch {
	case rsol.FSol < isol.FSol:
		return fail("first solution %d before instance first solution %d", rsol.FSol, isol.FSol)
	case rsol.LSol > isol.LSol:
		return fail("last solution %d after instance last solution %d", rsol.LSol, isol.LSol)
	case robj.BB < iobj.LB || robj.BB > iobj.UB:
		return fail("best bound %d outside instance range [%d, %d]", robj.BB, iobj.LB, iobj.UB)
	case robj.WB < iobj.LB || robj.WB > iobj.UB:
		return fail("worst bound %d outside instance range [%d, %d]", robj.WB, iobj.LB, iobj.UB)
	}

	return nil
}

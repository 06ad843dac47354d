package database

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ethpandaops/solverstats/pkg/results"
	"github.com/sirupsen/logrus"
)

// Database is the normalized view of a results directory. A Database is a
// value: Enrich returns a new one and never modifies its argument.
type Database struct {
	Raw            []results.RawRow
	Problems       []Problem
	Instances      []Instance
	Configurations []Configuration
	Runs           []Run
	Events         []Event

	enriched bool
}

// Enriched reports whether the metric columns have been derived.
func (db *Database) Enriched() bool {
	return db.enriched
}

// Read loads a results directory and builds its Database, enriching it
// when enrich is set.
func Read(log logrus.FieldLogger, dir string, enrich bool) (*Database, error) {
	raw, err := results.Load(log, dir)
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}

	db, err := Build(log, raw)
	if err != nil {
		return nil, fmt.Errorf("building database: %w", err)
	}

	if !enrich {
		return db, nil
	}

	enriched, err := Enrich(log, db)
	if err != nil {
		return nil, fmt.Errorf("enriching database: %w", err)
	}

	return enriched, nil
}

// Build derives the five base tables from raw rows.
func Build(log logrus.FieldLogger, raw []results.RawRow) (*Database, error) {
	log = log.WithField("component", "database")

	problems, err := BuildProblems(raw)
	if err != nil {
		return nil, fmt.Errorf("building problem table: %w", err)
	}

	instances, err := BuildInstances(raw, problems)
	if err != nil {
		return nil, fmt.Errorf("building flatzinc table: %w", err)
	}

	configurations, err := BuildConfigurations(log, raw)
	if err != nil {
		return nil, fmt.Errorf("building configuration table: %w", err)
	}

	runs, err := BuildRuns(raw, problems, instances, configurations)
	if err != nil {
		return nil, fmt.Errorf("building run table: %w", err)
	}

	events, err := BuildEvents(log, raw, problems, instances, configurations, runs)
	if err != nil {
		return nil, fmt.Errorf("building event table: %w", err)
	}

	log.WithFields(logrus.Fields{
		"problems":       len(problems),
		"instances":      len(instances),
		"configurations": len(configurations),
		"runs":           len(runs),
		"events":         len(events),
	}).Debug("Database built")

	return &Database{
		Raw:            raw,
		Problems:       problems,
		Instances:      instances,
		Configurations: configurations,
		Runs:           runs,
		Events:         events,
	}, nil
}

// BuildProblems returns one problem per distinct name, ids by name order.
func BuildProblems(raw []results.RawRow) ([]Problem, error) {
	names := distinct(raw, func(r *results.RawRow) string { return r.Problem })
	slices.Sort(names)

	problems := make([]Problem, len(names))
	for i, name := range names {
		problems[i] = Problem{ID: i, Name: name}
	}

	if err := checkUnique("problem", problems, func(p Problem) string { return p.Name }); err != nil {
		return nil, err
	}

	return problems, nil
}

type instanceKey struct {
	problem  string
	flatzinc string
}

// BuildInstances returns one instance per distinct (problem, flatzinc),
// ids by (problem id, name) order.
func BuildInstances(raw []results.RawRow, problems []Problem) ([]Instance, error) {
	problemIDs := indexBy(problems, func(p Problem) string { return p.Name })

	keys := distinct(raw, func(r *results.RawRow) instanceKey {
		return instanceKey{problem: r.Problem, flatzinc: r.Flatzinc}
	})

	instances := make([]Instance, 0, len(keys))

	for _, key := range keys {
		problemID, ok := problemIDs[key.problem]
		if !ok {
			return nil, &IntegrityError{
				Table:  "flatzinc",
				Detail: fmt.Sprintf("problem '%s' of '%s' does not exist", key.problem, key.flatzinc),
			}
		}

		instances = append(instances, Instance{Name: key.flatzinc, ProblemID: problemID})
	}

	slices.SortFunc(instances, func(a, b Instance) int {
		return cmp.Or(cmp.Compare(a.ProblemID, b.ProblemID), cmp.Compare(a.Name, b.Name))
	})

	if err := checkUnique("flatzinc", instances, func(i Instance) instanceID {
		return instanceID{problemID: i.ProblemID, name: i.Name}
	}); err != nil {
		return nil, err
	}

	for i := range instances {
		instances[i].ID = i
	}

	return instances, nil
}

type instanceID struct {
	problemID int
	name      string
}

// BuildConfigurations returns one configuration per distinct name, ids by
// name order. Every name must split on "_" into exactly three parts.
func BuildConfigurations(log logrus.FieldLogger, raw []results.RawRow) ([]Configuration, error) {
	names := distinct(raw, func(r *results.RawRow) string { return r.Configuration })
	slices.Sort(names)

	var (
		configurations = make([]Configuration, 0, len(names))
		malformed      []string
	)

	for i, name := range names {
		parts := strings.Split(name, "_")
		if len(parts) != 3 {
			log.WithField("configuration", name).
				Error("Configuration is not of the form varorder_valueorder_restart")

			malformed = append(malformed, name)

			continue
		}

		configurations = append(configurations, Configuration{
			ID:         i,
			Name:       name,
			VarOrder:   parts[0],
			ValueOrder: parts[1],
			Restart:    parts[2],
		})
	}

	if len(malformed) > 0 {
		return nil, &ConfigurationNameError{Names: malformed}
	}

	return configurations, nil
}

type runKey struct {
	instanceID      int
	configurationID int
}

// BuildRuns returns one run per executed (instance, configuration) pair,
// ids by (instance id, configuration id) order.
func BuildRuns(
	raw []results.RawRow,
	problems []Problem,
	instances []Instance,
	configurations []Configuration,
) ([]Run, error) {
	instanceIDs := instanceLookup(problems, instances)
	configurationIDs := indexBy(configurations, func(c Configuration) string { return c.Name })

	triples := distinct(raw, func(r *results.RawRow) RunRef {
		return RunRef{Problem: r.Problem, Flatzinc: r.Flatzinc, Configuration: r.Configuration}
	})

	runs := make([]Run, 0, len(triples))

	for _, ref := range triples {
		instanceID, ok := instanceIDs[instanceKey{problem: ref.Problem, flatzinc: ref.Flatzinc}]
		if !ok {
			return nil, &IntegrityError{Table: "run", Detail: fmt.Sprintf("no flatzinc for %s", ref)}
		}

		configurationID, ok := configurationIDs[ref.Configuration]
		if !ok {
			return nil, &IntegrityError{Table: "run", Detail: fmt.Sprintf("no configuration for %s", ref)}
		}

		runs = append(runs, Run{InstanceID: instanceID, ConfigurationID: configurationID})
	}

	if err := checkUnique("run", runs, func(r Run) runKey {
		return runKey{instanceID: r.InstanceID, configurationID: r.ConfigurationID}
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(runs, func(a, b Run) int {
		return cmp.Or(
			cmp.Compare(a.InstanceID, b.InstanceID),
			cmp.Compare(a.ConfigurationID, b.ConfigurationID),
		)
	})

	for i := range runs {
		runs[i].ID = i
	}

	return runs, nil
}

// BuildEvents resolves every raw row to its run and returns the event log
// ordered by (run id, time). Rows with equal time keep their file order.
func BuildEvents(
	log logrus.FieldLogger,
	raw []results.RawRow,
	problems []Problem,
	instances []Instance,
	configurations []Configuration,
	runs []Run,
) ([]Event, error) {
	instanceIDs := instanceLookup(problems, instances)
	configurationIDs := indexBy(configurations, func(c Configuration) string { return c.Name })
	runIDs := indexBy(runs, func(r Run) runKey {
		return runKey{instanceID: r.InstanceID, configurationID: r.ConfigurationID}
	})

	var (
		events = make([]Event, 0, len(raw))
		misses []RunRef
	)

	for i := range raw {
		row := &raw[i]

		instanceID, okInstance := instanceIDs[instanceKey{problem: row.Problem, flatzinc: row.Flatzinc}]
		configurationID, okConfiguration := configurationIDs[row.Configuration]
		runID, okRun := runIDs[runKey{instanceID: instanceID, configurationID: configurationID}]

		if !okInstance || !okConfiguration || !okRun {
			ref := RunRef{Problem: row.Problem, Flatzinc: row.Flatzinc, Configuration: row.Configuration}

			log.WithField("run", ref.String()).Warn("Raw row does not resolve to a run")

			misses = append(misses, ref)

			continue
		}

		events = append(events, Event{
			RunID:         runID,
			Type:          row.Type,
			NumSolutions:  row.NumSolutions,
			Objective:     row.Objective,
			Time:          row.Time,
			NumDecisions:  row.NumDecisions,
			NumConflicts:  row.NumConflicts,
			NumDomUpdates: row.NumDomUpdates,
			NumRestarts:   row.NumRestarts,
		})
	}

	if len(misses) > 0 {
		return nil, &JoinMissError{Rows: misses}
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Or(cmp.Compare(a.RunID, b.RunID), cmp.Compare(a.Time, b.Time))
	})

	for i := range events {
		events[i].ID = i
	}

	return events, nil
}

// instanceLookup maps (problem name, flatzinc name) to instance ids.
func instanceLookup(problems []Problem, instances []Instance) map[instanceKey]int {
	lookup := make(map[instanceKey]int, len(instances))

	for _, inst := range instances {
		if inst.ProblemID < 0 || inst.ProblemID >= len(problems) {
			continue
		}

		lookup[instanceKey{problem: problems[inst.ProblemID].Name, flatzinc: inst.Name}] = inst.ID
	}

	return lookup
}

// distinct returns the distinct keys of raw in first-seen order.
func distinct[K comparable](raw []results.RawRow, key func(*results.RawRow) K) []K {
	seen := make(map[K]struct{}, 64)
	keys := make([]K, 0, 64)

	for i := range raw {
		k := key(&raw[i])
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	return keys
}

// indexBy maps the key of every row to its position, which is also its id.
func indexBy[T any, K comparable](rows []T, key func(T) K) map[K]int {
	index := make(map[K]int, len(rows))
	for i, row := range rows {
		index[key(row)] = i
	}

	return index
}

// checkUnique asserts that key is unique over rows.
func checkUnique[T any, K comparable](table string, rows []T, key func(T) K) error {
	seen := make(map[K]struct{}, len(rows))

	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			return &IntegrityError{Table: table, Detail: fmt.Sprintf("duplicate key %v", k)}
		}

		seen[k] = struct{}{}
	}

	return nil
}

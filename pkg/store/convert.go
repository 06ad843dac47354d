package store

import (
	"github.com/ethpandaops/solverstats/pkg/database"
)

func objectiveFields(b *database.ObjectiveBounds) (lb, ub, bb, wb *int64) {
	if b == nil {
		return nil, nil, nil, nil
	}

	return &b.LB, &b.UB, &b.BB, &b.WB
}

func solutionFields(b *database.SolutionBounds) (fsol, lsol *int64) {
	if b == nil {
		return nil, nil
	}

	return &b.FSol, &b.LSol
}

func toProblems(dataset string, db *database.Database) []Problem {
	out := make([]Problem, len(db.Problems))
	for i, p := range db.Problems {
		out[i] = Problem{Dataset: dataset, ProblemID: p.ID, Name: p.Name, Type: string(p.Type)}
	}

	return out
}

func toInstances(dataset string, db *database.Database) []Instance {
	out := make([]Instance, len(db.Instances))

	for i := range db.Instances {
		inst := &db.Instances[i]

		rec := Instance{
			Dataset:     dataset,
			FlatzincID:  inst.ID,
			Name:        inst.Name,
			ProblemID:   inst.ProblemID,
			ProblemType: string(inst.ProblemType),
		}

		rec.ObjectiveLB, rec.ObjectiveUB, rec.ObjectiveBB, rec.ObjectiveWB = objectiveFields(inst.Objective)
		rec.TimeFSol, rec.TimeLSol = solutionFields(inst.Time)
		rec.NumDecisionsFSol, rec.NumDecisionsLSol = solutionFields(inst.Decisions)

		out[i] = rec
	}

	return out
}

func toConfigurations(dataset string, db *database.Database) []Configuration {
	out := make([]Configuration, len(db.Configurations))
	for i, c := range db.Configurations {
		out[i] = Configuration{
			Dataset:         dataset,
			ConfigurationID: c.ID,
			Name:            c.Name,
			VarOrder:        c.VarOrder,
			ValueOrder:      c.ValueOrder,
			Restart:         c.Restart,
		}
	}

	return out
}

func toRuns(dataset string, db *database.Database) []Run {
	out := make([]Run, len(db.Runs))

	for i := range db.Runs {
		run := &db.Runs[i]

		rec := Run{
			Dataset:         dataset,
			RunID:           run.ID,
			FlatzincID:      run.InstanceID,
			ConfigurationID: run.ConfigurationID,
			NumSolutions:    run.NumSolutions,
			ObjectiveScore:  run.ObjectiveScore,
			AUTCScore:       run.AUTCScore,
			AUDCScore:       run.AUDCScore,
		}

		rec.ObjectiveLB, rec.ObjectiveUB, rec.ObjectiveBB, rec.ObjectiveWB = objectiveFields(run.Objective)
		rec.TimeFSol, rec.TimeLSol = solutionFields(run.Time)
		rec.NumDecisionsFSol, rec.NumDecisionsLSol = solutionFields(run.Decisions)

		out[i] = rec
	}

	return out
}

func toEvents(dataset string, db *database.Database) []Event {
	out := make([]Event, len(db.Events))
	for i, e := range db.Events {
		out[i] = Event{
			Dataset:       dataset,
			EventID:       e.ID,
			RunID:         e.RunID,
			Type:          e.Type.String(),
			NumSolutions:  e.NumSolutions,
			Objective:     e.Objective,
			Time:          e.Time.Microseconds(),
			NumDecisions:  e.NumDecisions,
			NumConflicts:  e.NumConflicts,
			NumDomUpdates: e.NumDomUpdates,
			NumRestarts:   e.NumRestarts,
		}
	}

	return out
}

package report

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/ethpandaops/solverstats/pkg/database"
)

// Markdown renders a summary of the database: table sizes, problems and,
// when enriched, mean scores per configuration.
func Markdown(db *database.Database, title string) string {
	var sb strings.Builder

	sb.Grow(4096)

	writeTitle(&sb, title)
	writeOverview(&sb, db)
	writeProblems(&sb, db)
	writeConfigurations(&sb, db)

	return sb.String()
}

func writeTitle(sb *strings.Builder, title string) {
	if title == "" {
		title = "Solver Results"
	}

	fmt.Fprintf(sb, "# %s\n\n", title)
}

func writeOverview(sb *strings.Builder, db *database.Database) {
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Table | Rows |\n")
	sb.WriteString("|---|---|\n")

	for _, t := range db.Tables() {
		fmt.Fprintf(sb, "| %s | %d |\n", t.Name, len(t.Rows))
	}

	enriched := "no"
	if db.Enriched() {
		enriched = "yes"
	}

	fmt.Fprintf(sb, "\nEnriched: %s\n\n", enriched)
}

func writeProblems(sb *strings.Builder, db *database.Database) {
	if len(db.Problems) == 0 {
		return
	}

	instances := make([]int, len(db.Problems))
	for _, inst := range db.Instances {
		instances[inst.ProblemID]++
	}

	sb.WriteString("## Problems\n\n")
	sb.WriteString("| Problem | Type | Instances |\n")
	sb.WriteString("|---|---|---|\n")

	for _, p := range db.Problems {
		typ := "-"
		if p.Type != database.ProblemTypeUnknown {
			typ = fmt.Sprintf("%s %s", p.Type.Arrow(), p.Type)
		}

		fmt.Fprintf(sb, "| %s | %s | %d |\n", p.Name, typ, instances[p.ID])
	}

	sb.WriteString("\n")
}

func writeConfigurations(sb *strings.Builder, db *database.Database) {
	if len(db.Configurations) == 0 {
		return
	}

	type scores struct {
		runs      int
		solved    int
		objective []float64
		autc      []float64
		audc      []float64
	}

	per := make([]scores, len(db.Configurations))

	for _, run := range db.Runs {
		s := &per[run.ConfigurationID]
		s.runs++

		if run.NumSolutions > 0 {
			s.solved++
		}

		if run.ObjectiveScore != nil {
			s.objective = append(s.objective, *run.ObjectiveScore)
		}

		if run.AUTCScore != nil {
			s.autc = append(s.autc, *run.AUTCScore)
		}

		if run.AUDCScore != nil {
			s.audc = append(s.audc, *run.AUDCScore)
		}
	}

	sb.WriteString("## Configurations\n\n")

	if !db.Enriched() {
		sb.WriteString("| Configuration | Var Order | Value Order | Restart | Runs |\n")
		sb.WriteString("|---|---|---|---|---|\n")

		for _, c := range db.Configurations {
			fmt.Fprintf(sb, "| %s | %s | %s | %s | %d |\n",
				c.Name, c.VarOrder, c.ValueOrder, c.Restart, per[c.ID].runs)
		}

		sb.WriteString("\n")

		return
	}

	sb.WriteString("| Configuration | Runs | Solved | Objective Score | AUTC Score | AUDC Score |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")

	for _, c := range db.Configurations {
		s := per[c.ID]
		fmt.Fprintf(sb, "| %s | %d | %d | %s | %s | %s |\n",
			c.Name, s.runs, s.solved, mean(s.objective), mean(s.autc), mean(s.audc))
	}

	sb.WriteString("\nScores are means over runs with at least one solution; lower is better.\n")
}

func mean(x []float64) string {
	if len(x) == 0 {
		return "-"
	}

	return fmt.Sprintf("%.3f", stat.Mean(x, nil))
}

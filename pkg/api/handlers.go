package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/store"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// tableSummary describes one table in the table listing.
type tableSummary struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// problemTypeResponse is one problem of the problem type listing.
type problemTypeResponse struct {
	Problem string `json:"problem"`
	Type    string `json:"type"`
	Arrow   string `json:"arrow"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListTables returns the name and shape of every table.
func (s *server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	tables := s.db.Tables()
	resp := make([]tableSummary, 0, len(tables))

	for _, t := range tables {
		resp = append(resp, tableSummary{
			Name:    t.Name,
			Rows:    len(t.Rows),
			Columns: len(t.Columns),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"enriched": s.db.Enriched(),
		"tables":   resp,
	})
}

// handleTable returns the rows of a table. Every query parameter filters
// on the column of that name; repeated parameters must all match.
func (s *server) handleTable(w http.ResponseWriter, r *http.Request) {
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	columns := make([]string, 0, len(query))

	for column := range query {
		columns = append(columns, column)
	}

	slices.Sort(columns)

	for _, column := range columns {
		for _, value := range query[column] {
			filtered, err := table.Filter(column, value)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

				return
			}

			table = filtered
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":    table.Name,
		"columns": table.Columns,
		"rows":    table.Records(),
	})
}

// handleTableSchema returns the columns and types of a table.
func (s *server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":    table.Name,
		"columns": table.Columns,
	})
}

// handleProblemTypes returns the inferred direction of every problem.
// Types are empty until the database is enriched.
func (s *server) handleProblemTypes(w http.ResponseWriter, _ *http.Request) {
	resp := make([]problemTypeResponse, 0, len(s.db.Problems))

	for _, p := range s.db.Problems {
		resp = append(resp, problemTypeResponse{
			Problem: p.Name,
			Type:    string(p.Type),
			Arrow:   p.Type.Arrow(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListDatasets returns the saved datasets.
func (s *server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.datasets.ListDatasets(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to list datasets")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing datasets"})

		return
	}

	writeJSON(w, http.StatusOK, datasets)
}

// handleDatasetRuns returns the stored runs of one dataset.
func (s *server) handleDatasetRuns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if _, err := s.datasets.GetDataset(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrDatasetNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{"dataset not found"})

			return
		}

		s.log.WithError(err).Error("Failed to get dataset")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"getting dataset"})

		return
	}

	runs, err := s.datasets.ListRuns(r.Context(), name)
	if err != nil {
		s.log.WithError(err).Error("Failed to list runs")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"listing runs"})

		return
	}

	writeJSON(w, http.StatusOK, runs)
}

// lookupTable resolves the {name} URL parameter, writing a 404 when the
// table does not exist.
func (s *server) lookupTable(w http.ResponseWriter, r *http.Request) (*database.Table, bool) {
	table, err := s.db.Table(chi.URLParam(r, "name"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, database.ErrUnknownTable) {
			status = http.StatusNotFound
		}

		writeJSON(w, status, errorResponse{err.Error()})

		return nil, false
	}

	return table, true
}

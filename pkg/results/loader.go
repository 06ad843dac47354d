package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Load reads every <dir>/<configuration>/results.csv and returns the
// concatenation of all rows, in directory name order then file order.
func Load(log logrus.FieldLogger, dir string) ([]RawRow, error) {
	log = log.WithField("component", "results")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading results directory: %w", err)
	}

	var (
		rows    []RawRow
		configs int
	)

	// os.ReadDir returns entries sorted by file name.
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name(), ResultsFile)

		fileRows, err := LoadFile(path, entry.Name())
		if err != nil {
			var schemaErr *SchemaError
			if errors.As(err, &schemaErr) {
				log.WithField("file", path).
					Errorf("expected columns for raw table: %v", schemaErr.Expected)
				log.WithField("file", path).
					Errorf("  actual columns for raw table: %v", schemaErr.Actual)
			}

			return nil, err
		}

		log.WithFields(logrus.Fields{
			"configuration": entry.Name(),
			"rows":          len(fileRows),
		}).Debug("Loaded results file")

		rows = append(rows, fileRows...)
		configs++
	}

	if configs == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoResults)
	}

	log.WithFields(logrus.Fields{
		"configurations": configs,
		"rows":           len(rows),
	}).Info("Loaded raw results")

	return rows, nil
}

// LoadFile reads a single results file and tags its rows with configuration.
func LoadFile(path, configuration string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, path, configuration)
}

// Parse decodes a results CSV stream. name is only used in error messages.
func Parse(r io.Reader, name, configuration string) ([]RawRow, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{File: name, Expected: ExpectedColumns, Actual: []string{"configuration"}}
		}

		return nil, fmt.Errorf("reading header of %s: %w", name, err)
	}

	columns := append([]string{"configuration"}, header...)
	if !slices.Equal(columns, ExpectedColumns) {
		return nil, &SchemaError{File: name, Expected: ExpectedColumns, Actual: columns}
	}

	var rows []RawRow

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		row, perr := parseRecord(record, configuration)
		if perr != nil {
			perr.File = name
			perr.Line = line

			return nil, perr
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// parseRecord casts one CSV record. Record indexes are shifted by one from
// ExpectedColumns because the configuration column is not in the file.
func parseRecord(record []string, configuration string) (RawRow, *ParseError) {
	row := RawRow{
		Configuration: configuration,
		Problem:       record[0],
		Flatzinc:      record[1],
	}

	var err error

	if row.Type, err = ParseEventType(record[2]); err != nil {
		return row, &ParseError{Column: "type", Err: err}
	}

	counters := []struct {
		column string
		cell   string
		dst    *uint64
	}{
		{"num_solutions", record[3], &row.NumSolutions},
		{"num_decisions", record[6], &row.NumDecisions},
		{"num_conflicts", record[7], &row.NumConflicts},
		{"num_dom_updates", record[8], &row.NumDomUpdates},
		{"num_restarts", record[9], &row.NumRestarts},
	}

	for _, c := range counters {
		if *c.dst, err = strconv.ParseUint(c.cell, 10, 64); err != nil {
			return row, &ParseError{Column: c.column, Err: err}
		}
	}

	if record[4] != "" {
		objective, err := strconv.ParseInt(record[4], 10, 64)
		if err != nil {
			return row, &ParseError{Column: "objective", Err: err}
		}

		row.Objective = &objective
	}

	micros, err := strconv.ParseInt(record[5], 10, 64)
	if err != nil {
		return row, &ParseError{Column: "time", Err: err}
	}

	row.Time = time.Duration(micros) * time.Microsecond

	return row, nil
}

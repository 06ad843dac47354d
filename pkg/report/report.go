// Package report renders database tables and the derived statistics the
// command line prints: schemas, tables, pivots, box statistics, curves and
// markdown summaries.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/solverstats/pkg/database"
)

// Output formats supported by Print.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

var (
	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrNotNumeric is returned when a numeric column is required.
	ErrNotNumeric = errors.New("column is not numeric")
)

// Describe writes the shape and column types of a table.
func Describe(w io.Writer, t *database.Table) error {
	if _, err := fmt.Fprintf(w, "%s (%d, %d):\n", t.Name, len(t.Rows), len(t.Columns)); err != nil {
		return err
	}

	for _, c := range t.Columns {
		if _, err := fmt.Fprintf(w, " - %s %s\n", c.Name, c.Type); err != nil {
			return err
		}
	}

	return nil
}

// Print writes the rows of a table in the given format.
func Print(w io.Writer, t *database.Table, format string) error {
	switch format {
	case FormatTable, "":
		table := newTable(w, t.ColumnNames())

		for _, row := range t.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = database.FormatCell(v)
			}

			table.Append(cells)
		}

		table.Render()

		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(t.Records()); err != nil {
			return fmt.Errorf("encoding %s table: %w", t.Name, err)
		}

		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer func() { _ = enc.Close() }()

		if err := enc.Encode(t.Records()); err != nil {
			return fmt.Errorf("encoding %s table: %w", t.Name, err)
		}

		return nil
	default:
		return fmt.Errorf("%w %q (valid values are: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// CheckFormat returns an error for an unsupported format.
func CheckFormat(format string) error {
	if format == "" || slices.Contains(Formats, format) {
		return nil
	}

	return fmt.Errorf("%w %q (valid values are: %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader(header)

	return table
}

// numericColumn validates that column exists in t and holds numbers.
func numericColumn(t *database.Table, column string) (int, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return -1, err
	}

	if !database.IsNumeric(t.Columns[idx].Type) {
		return -1, fmt.Errorf("%w: '%s' of %s table has type %s", ErrNotNumeric, column, t.Name, t.Columns[idx].Type)
	}

	return idx, nil
}

// formatFloat prints integral values in full and others with 4 significant
// digits.
func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return strconv.FormatFloat(v, 'g', 4, 64)
}

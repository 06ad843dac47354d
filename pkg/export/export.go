// Package export writes a database to a directory: one JSON file per table,
// a markdown summary and a manifest.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/report"
)

// File names written next to the table files.
const (
	SummaryFile  = "summary.md"
	ManifestFile = "manifest.json"
)

// Options configures Export.
type Options struct {
	// Dir receives the exported files. It is created if missing.
	Dir string
	// Dataset names the export in the manifest and the summary title.
	Dataset string
	// Owner is an optional "UID:GID" for every created file.
	Owner string
	// System adds host details to the manifest.
	System bool
}

// TableFile describes one exported table.
type TableFile struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Bytes   int    `json:"bytes"`
	Size    string `json:"size"`
}

// Manifest is written to ManifestFile and describes an export.
type Manifest struct {
	Dataset   string      `json:"dataset"`
	Enriched  bool        `json:"enriched"`
	CreatedAt time.Time   `json:"created_at"`
	Tables    []TableFile `json:"tables"`
	Summary   string      `json:"summary"`
	System    *SystemInfo `json:"system,omitempty"`
}

// Export writes every table of db as <dir>/<table>.json, a markdown
// summary and a manifest, and returns the manifest.
func Export(ctx context.Context, log logrus.FieldLogger, db *database.Database, opts Options) (*Manifest, error) {
	if opts.Dir == "" {
		return nil, errors.New("export directory is required")
	}

	log = log.WithField("component", "export")

	owner, err := ParseOwner(opts.Owner)
	if err != nil {
		return nil, fmt.Errorf("parsing owner: %w", err)
	}

	if err := owner.mkdirAll(opts.Dir); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	manifest := &Manifest{
		Dataset:   opts.Dataset,
		Enriched:  db.Enriched(),
		CreatedAt: time.Now().UTC(),
		Tables:    make([]TableFile, 0, len(database.TableNames)),
		Summary:   SummaryFile,
	}

	for _, t := range db.Tables() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(t.Records(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding %s table: %w", t.Name, err)
		}

		file := t.Name + ".json"
		if err := owner.writeFile(filepath.Join(opts.Dir, file), data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", file, err)
		}

		manifest.Tables = append(manifest.Tables, TableFile{
			Name:    t.Name,
			File:    file,
			Rows:    len(t.Rows),
			Columns: len(t.Columns),
			Bytes:   len(data),
			Size:    units.HumanSize(float64(len(data))),
		})

		log.WithFields(logrus.Fields{
			"table": t.Name,
			"rows":  len(t.Rows),
			"size":  units.HumanSize(float64(len(data))),
		}).Debug("Table exported")
	}

	summary := report.Markdown(db, opts.Dataset)
	if err := owner.writeFile(filepath.Join(opts.Dir, SummaryFile), []byte(summary)); err != nil {
		return nil, fmt.Errorf("writing %s: %w", SummaryFile, err)
	}

	if opts.System {
		manifest.System = collectSystemInfo(ctx, log)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}

	if err := owner.writeFile(filepath.Join(opts.Dir, ManifestFile), data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", ManifestFile, err)
	}

	log.WithFields(logrus.Fields{
		"dir":     opts.Dir,
		"dataset": opts.Dataset,
		"tables":  len(manifest.Tables),
	}).Info("Export completed")

	return manifest, nil
}

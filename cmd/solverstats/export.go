package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/config"
	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/export"
	"github.com/ethpandaops/solverstats/pkg/store"
	"github.com/ethpandaops/solverstats/pkg/upload"
)

var (
	exportDir     string
	exportDataset string
	exportOwner   string
	exportSystem  bool
	exportToDB    bool
	exportUpload  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the tables to files, a database or S3",
	Long: `Write every table as JSON along with a markdown summary and a manifest.
Optionally save the tables to the configured database and upload the export
directory to S3-compatible storage.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "dir", "",
		"export directory (default: export.dir)")
	exportCmd.Flags().StringVar(&exportDataset, "dataset", "",
		"dataset name (default: results directory name)")
	exportCmd.Flags().StringVar(&exportOwner, "owner", "",
		"UID:GID owning the exported files (default: export.owner)")
	exportCmd.Flags().BoolVar(&exportSystem, "system", false,
		"record host details in the manifest")
	exportCmd.Flags().BoolVar(&exportToDB, "db", false,
		"save the tables to the configured database")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false,
		"upload the export directory to S3")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := export.Options{
		Dir:     firstNonEmpty(exportDir, cfg.Export.Dir),
		Dataset: firstNonEmpty(exportDataset, filepath.Base(filepath.Clean(cfg.Results.Dir))),
		Owner:   firstNonEmpty(exportOwner, cfg.Export.Owner),
		System:  exportSystem,
	}

	if exportUpload && !cfg.Export.S3.Enabled {
		return fmt.Errorf("S3 upload is not configured or not enabled in config")
	}

	db, err := readDatabase()
	if err != nil {
		return err
	}

	manifest, err := export.Export(ctx, log, db, opts)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	if exportToDB {
		if err := saveDatabase(ctx, &cfg.Export.Database, opts.Dataset, db); err != nil {
			return err
		}
	}

	if exportUpload {
		if err := uploadExport(ctx, &cfg.Export.S3, opts.Dir); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"dir":      opts.Dir,
		"dataset":  manifest.Dataset,
		"tables":   len(manifest.Tables),
		"database": exportToDB,
		"uploaded": exportUpload,
	}).Info("Export completed successfully")

	return nil
}

func saveDatabase(
	ctx context.Context,
	dbCfg *config.DatabaseConfig,
	dataset string,
	db *database.Database,
) error {
	st := store.NewStore(log, dbCfg)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() {
		if err := st.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop store")
		}
	}()

	if err := st.SaveDatabase(ctx, dataset, db); err != nil {
		return fmt.Errorf("saving dataset %s: %w", dataset, err)
	}

	return nil
}

func uploadExport(ctx context.Context, s3Cfg *config.S3UploadConfig, dir string) error {
	uploader, err := upload.NewS3Uploader(log, s3Cfg)
	if err != nil {
		return fmt.Errorf("creating S3 uploader: %w", err)
	}

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("s3 preflight: %w", err)
	}

	log.WithField("dir", dir).Info("Uploading export")

	count, err := uploader.Upload(ctx, dir)
	if err != nil {
		return fmt.Errorf("uploading export: %w", err)
	}

	log.WithField("files", count).Info("Upload completed successfully")

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

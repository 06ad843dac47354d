package main

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/export"
	"github.com/ethpandaops/solverstats/pkg/upload"
)

var listExportsCmd = &cobra.Command{
	Use:   "list-exports",
	Short: "List exports uploaded to S3",
	Args:  cobra.NoArgs,
	RunE:  runListExports,
}

func init() {
	rootCmd.AddCommand(listExportsCmd)
}

func runListExports(cmd *cobra.Command, _ []string) error {
	if !cfg.Export.S3.Enabled {
		return fmt.Errorf("S3 upload is not configured or not enabled in config")
	}

	ctx := cmd.Context()
	reader := upload.NewS3Reader(log, &cfg.Export.S3)

	names, err := reader.ListExports(ctx)
	if err != nil {
		return fmt.Errorf("listing exports: %w", err)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"export", "dataset", "enriched", "created", "tables"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, name := range names {
		data, err := reader.ExportObject(ctx, name, export.ManifestFile)
		if err != nil {
			return fmt.Errorf("reading manifest of %s: %w", name, err)
		}

		if data == nil {
			table.Append([]string{name, "-", "-", "-", "-"})

			continue
		}

		var manifest export.Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.WithError(err).WithField("export", name).Warn("Invalid manifest")
			table.Append([]string{name, "?", "?", "?", "?"})

			continue
		}

		table.Append([]string{
			name,
			manifest.Dataset,
			fmt.Sprint(manifest.Enriched),
			manifest.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprint(len(manifest.Tables)),
		})
	}

	table.Render()

	return nil
}

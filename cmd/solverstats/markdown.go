package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/report"
)

var (
	markdownOutput string
	markdownTitle  string
)

var markdownCmd = &cobra.Command{
	Use:   "markdown",
	Short: "Generate a markdown summary of the results",
	Args:  cobra.NoArgs,
	RunE:  runMarkdown,
}

func init() {
	rootCmd.AddCommand(markdownCmd)
	markdownCmd.Flags().StringVarP(&markdownOutput, "output", "o", "",
		"output file path (default: stdout)")
	markdownCmd.Flags().StringVar(&markdownTitle, "title", "",
		"summary title")
}

func runMarkdown(cmd *cobra.Command, _ []string) error {
	db, err := readDatabase()
	if err != nil {
		return err
	}

	md := report.Markdown(db, markdownTitle)

	if markdownOutput == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), md)

		return err
	}

	if err := os.WriteFile(markdownOutput, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	log.WithField("output", markdownOutput).
		Info("Markdown summary generated successfully")

	return nil
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/api"
	"github.com/ethpandaops/solverstats/pkg/store"
)

var (
	serveListen   string
	serveDatasets bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only table API server",
	Long: `Serve the tables of the results directory over HTTP. With --datasets the
datasets saved by "export --db" are served as well.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"listen address (default: api.listen)")
	serveCmd.Flags().BoolVar(&serveDatasets, "datasets", false,
		"serve the datasets of the configured database")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveListen != "" {
		cfg.API.Listen = serveListen
	}

	db, err := readDatabase()
	if err != nil {
		return err
	}

	var datasets store.Store
	if serveDatasets {
		datasets = store.NewStore(log, &cfg.Export.Database)
	}

	ctx := cmd.Context()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	srv := api.NewServer(log, &cfg.API, db, datasets)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	// Wait for shutdown signal.
	sig := <-sigCh
	log.WithField("signal", sig).Info("Shutting down API server")

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stopping api server: %w", err)
	}

	return nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/solverstats/pkg/config"
	"github.com/ethpandaops/solverstats/pkg/database"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFiles   []string
	logLevel   string
	resultsDir string
	basic      bool
	cfg        *config.Config
	log        *logrus.Logger
)

func main() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "solverstats",
	Short: "Constraint solver results analysis tool",
	Long: `Solverstats reads per-configuration solver result CSV files, normalizes
them into problem, flatzinc, configuration, run and event tables and derives
objective and area-under-curve scores to compare search configurations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFiles...)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cmd.Flags().Changed("log-level") {
			loaded.Global.LogLevel = logLevel
		}

		if cmd.Flags().Changed("results-dir") {
			loaded.Results.Dir = resultsDir
		}

		if basic {
			loaded.Results.Enrich = false
		}

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}

		level, err := logrus.ParseLevel(loaded.Global.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", loaded.Global.LogLevel, err)
		}

		log.SetLevel(level)

		cfg = loaded

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("solverstats %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&cfgFiles, "config", nil,
		"config file path (can be repeated, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"log level ("+strings.Join(logLevels(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", config.DefaultResultsDir,
		"directory containing one results CSV per configuration")
	rootCmd.PersistentFlags().BoolVar(&basic, "basic", false,
		"do not derive problem types, bounds and scores")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// readDatabase reads the configured results directory.
func readDatabase() (*database.Database, error) {
	log.WithFields(logrus.Fields{
		"dir":    cfg.Results.Dir,
		"enrich": cfg.Results.Enrich,
	}).Debug("Reading results")

	db, err := database.Read(log, cfg.Results.Dir, cfg.Results.Enrich)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cfg.Results.Dir, err)
	}

	return db, nil
}

// selectTables returns the named table, or every table when args is empty.
func selectTables(db *database.Database, args []string) ([]*database.Table, error) {
	if len(args) == 0 {
		return db.Tables(), nil
	}

	t, err := db.Table(args[0])
	if err != nil {
		return nil, err
	}

	return []*database.Table{t}, nil
}

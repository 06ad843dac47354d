// Package store persists databases to a relational database through gorm,
// one dataset per saved database.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethpandaops/solverstats/pkg/config"
	"github.com/ethpandaops/solverstats/pkg/database"
)

var (
	// ErrEmptyDataset is returned when saving without a dataset name.
	ErrEmptyDataset = errors.New("dataset name is required")

	// ErrDatasetNotFound is returned by GetDataset for an unknown name.
	ErrDatasetNotFound = errors.New("dataset not found")
)

const batchSize = 500

// Store provides persistence for saved databases.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// SaveDatabase replaces every record of dataset with the tables of db
	// in a single transaction.
	SaveDatabase(ctx context.Context, dataset string, db *database.Database) error
	ListDatasets(ctx context.Context) ([]Dataset, error)
	GetDataset(ctx context.Context, name string) (*Dataset, error)
	ListRuns(ctx context.Context, dataset string) ([]Run, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(log logrus.FieldLogger, cfg *config.DatabaseConfig) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case config.DriverPostgres:
		dialector = postgres.Open(s.cfg.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if s.cfg.Driver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		// In-memory databases exist per connection.
		sqlDB.SetMaxOpenConns(1)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Dataset{},
		&Problem{},
		&Instance{},
		&Configuration{},
		&Run{},
		&Event{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

func (s *store) SaveDatabase(ctx context.Context, dataset string, db *database.Database) error {
	if dataset == "" {
		return ErrEmptyDataset
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&Event{}, &Run{}, &Configuration{}, &Instance{}, &Problem{}} {
			if err := tx.Where("dataset = ?", dataset).Delete(model).Error; err != nil {
				return fmt.Errorf("clearing %T: %w", model, err)
			}
		}

		if err := tx.Where("name = ?", dataset).Delete(&Dataset{}).Error; err != nil {
			return fmt.Errorf("clearing dataset: %w", err)
		}

		if err := tx.Create(&Dataset{
			Name:           dataset,
			Enriched:       db.Enriched(),
			Problems:       len(db.Problems),
			Instances:      len(db.Instances),
			Configurations: len(db.Configurations),
			Runs:           len(db.Runs),
			Events:         len(db.Events),
			SavedAt:        time.Now().UTC(),
		}).Error; err != nil {
			return fmt.Errorf("creating dataset: %w", err)
		}

		if err := insert(tx, toProblems(dataset, db)); err != nil {
			return fmt.Errorf("inserting problems: %w", err)
		}

		if err := insert(tx, toInstances(dataset, db)); err != nil {
			return fmt.Errorf("inserting flatzincs: %w", err)
		}

		if err := insert(tx, toConfigurations(dataset, db)); err != nil {
			return fmt.Errorf("inserting configurations: %w", err)
		}

		if err := insert(tx, toRuns(dataset, db)); err != nil {
			return fmt.Errorf("inserting runs: %w", err)
		}

		if err := insert(tx, toEvents(dataset, db)); err != nil {
			return fmt.Errorf("inserting events: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("saving dataset %q: %w", dataset, err)
	}

	s.log.WithFields(logrus.Fields{
		"dataset": dataset,
		"runs":    len(db.Runs),
		"events":  len(db.Events),
	}).Info("Dataset saved")

	return nil
}

// insert creates rows in batches.
func insert[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	return tx.CreateInBatches(rows, batchSize).Error
}

// ListDatasets returns every saved dataset ordered by name.
func (s *store) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var datasets []Dataset
	if err := s.db.WithContext(ctx).
		Order("name").
		Find(&datasets).Error; err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}

	return datasets, nil
}

// GetDataset returns the named dataset or ErrDatasetNotFound.
func (s *store) GetDataset(ctx context.Context, name string) (*Dataset, error) {
	var dataset Dataset
	if err := s.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dataset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}

		return nil, fmt.Errorf("getting dataset: %w", err)
	}

	return &dataset, nil
}

// ListRuns returns the runs of a dataset ordered by run id.
func (s *store) ListRuns(ctx context.Context, dataset string) ([]Run, error) {
	runs := make([]Run, 0, 64)
	if err := s.db.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("run_id").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	return runs, nil
}

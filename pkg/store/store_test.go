package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/solverstats/pkg/config"
	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/results"
	"github.com/ethpandaops/solverstats/pkg/store"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func setupTestStore(t *testing.T) store.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	}

	s := store.NewStore(testLogger(), cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func objective(v int64) *int64 {
	return &v
}

func testDatabase(t *testing.T, enrich bool) *database.Database {
	t.Helper()

	raw := []results.RawRow{
		{Configuration: "a_b_none", Problem: "P", Flatzinc: "I", Type: results.EventStart},
		{
			Configuration: "a_b_none", Problem: "P", Flatzinc: "I", Type: results.EventNewSolution,
			NumSolutions: 1, Objective: objective(10), Time: 100 * time.Microsecond, NumDecisions: 10,
		},
		{
			Configuration: "a_b_none", Problem: "P", Flatzinc: "I", Type: results.EventNewSolution,
			NumSolutions: 2, Objective: objective(5), Time: 200 * time.Microsecond, NumDecisions: 20,
		},
		{Configuration: "c_d_luby", Problem: "P", Flatzinc: "I", Type: results.EventStart},
		{
			Configuration: "c_d_luby", Problem: "P", Flatzinc: "I", Type: results.EventNewSolution,
			NumSolutions: 1, Objective: objective(8), Time: 50 * time.Microsecond, NumDecisions: 5,
		},
	}

	db, err := database.Build(testLogger(), raw)
	require.NoError(t, err)

	if enrich {
		db, err = database.Enrich(testLogger(), db)
		require.NoError(t, err)
	}

	return db
}

func TestStore_SaveAndListRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDatabase(ctx, "nightly", testDatabase(t, true)))

	runs, err := s.ListRuns(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, 0, runs[0].RunID)
	assert.Equal(t, 0, runs[0].ConfigurationID)
	assert.Equal(t, uint64(2), runs[0].NumSolutions)
	require.NotNil(t, runs[0].ObjectiveBB)
	assert.Equal(t, int64(5), *runs[0].ObjectiveBB)
	require.NotNil(t, runs[0].TimeFSol)
	assert.Equal(t, int64(100), *runs[0].TimeFSol)

	require.NotNil(t, runs[1].ObjectiveScore)
	assert.InDelta(t, 0.6, *runs[1].ObjectiveScore, 1e-9)
	require.NotNil(t, runs[0].AUTCScore)
	assert.InDelta(t, 1.0/3.0, *runs[0].AUTCScore, 1e-9)

	other, err := s.ListRuns(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_SaveReplacesDataset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDatabase(ctx, "nightly", testDatabase(t, false)))
	require.NoError(t, s.SaveDatabase(ctx, "nightly", testDatabase(t, true)))

	datasets, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 1, "saving again must not duplicate the dataset")
	assert.True(t, datasets[0].Enriched)
	assert.Equal(t, 2, datasets[0].Runs)
	assert.Equal(t, 5, datasets[0].Events)

	runs, err := s.ListRuns(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotNil(t, runs[0].ObjectiveScore)
}

func TestStore_DatasetsAreIsolated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDatabase(ctx, "beta", testDatabase(t, true)))
	require.NoError(t, s.SaveDatabase(ctx, "alpha", testDatabase(t, false)))

	datasets, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	assert.Equal(t, "alpha", datasets[0].Name)
	assert.False(t, datasets[0].Enriched)
	assert.Equal(t, "beta", datasets[1].Name)

	alpha, err := s.ListRuns(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, alpha, 2)
	assert.Nil(t, alpha[0].ObjectiveScore)
	assert.Nil(t, alpha[0].TimeFSol)
}

func TestStore_GetDataset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	empty, err := database.Build(testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveDatabase(ctx, "empty", empty))

	dataset, err := s.GetDataset(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, "empty", dataset.Name)
	assert.Zero(t, dataset.Runs)

	runs, err := s.ListRuns(ctx, "empty")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	_, err = s.GetDataset(ctx, "missing")
	require.ErrorIs(t, err, store.ErrDatasetNotFound)
}

func TestStore_EmptyDatasetName(t *testing.T) {
	s := setupTestStore(t)

	err := s.SaveDatabase(context.Background(), "", testDatabase(t, false))
	require.ErrorIs(t, err, store.ErrEmptyDataset)
}

func TestStore_UnsupportedDriver(t *testing.T) {
	s := store.NewStore(testLogger(), &config.DatabaseConfig{Driver: "mysql"})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
	assert.NoError(t, s.Stop())
}

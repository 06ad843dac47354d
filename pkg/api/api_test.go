package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	log.SetLevel(logrus.PanicLevel)

	return log
}

func objective(v int64) *int64 {
	return &v
}

func testDatabase(t *testing.T) *database.Database {
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

	db, err = database.Enrich(testLogger(), db)
	require.NoError(t, err)

	return db
}

func newTestServer(t *testing.T, cfg *config.APIConfig, datasets store.Store) (*server, http.Handler) {
	t.Helper()

	if cfg == nil {
		cfg = &config.APIConfig{Listen: ":0"}
	}

	srv, ok := NewServer(testLogger(), cfg, testDatabase(t), datasets).(*server)
	require.True(t, ok)

	t.Cleanup(func() { _ = srv.Stop() })

	return srv, srv.buildRouter()
}

func get(t *testing.T, h http.Handler, target string, v any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
	}

	return rec
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	var resp map[string]string

	rec := get(t, h, "/api/v1/health", &resp)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleListTables(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	var resp struct {
		Enriched bool           `json:"enriched"`
		Tables   []tableSummary `json:"tables"`
	}

	rec := get(t, h, "/api/v1/tables", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, resp.Enriched)
	require.Len(t, resp.Tables, len(database.TableNames))

	counts := make(map[string]int, len(resp.Tables))
	for _, tbl := range resp.Tables {
		counts[tbl.Name] = tbl.Rows
	}

	assert.Equal(t, 5, counts[database.TableRaw])
	assert.Equal(t, 1, counts[database.TableProblem])
	assert.Equal(t, 1, counts[database.TableFlatzinc])
	assert.Equal(t, 2, counts[database.TableConfiguration])
	assert.Equal(t, 2, counts[database.TableRun])
	assert.Equal(t, 5, counts[database.TableEvent])
}

func TestHandleTable(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantRows int
		errSub   string
	}{
		{name: "all rows", target: "/api/v1/tables/run", wantCode: http.StatusOK, wantRows: 2},
		{name: "alias", target: "/api/v1/tables/instance", wantCode: http.StatusOK, wantRows: 1},
		{name: "df suffix", target: "/api/v1/tables/event_df", wantCode: http.StatusOK, wantRows: 5},
		{name: "filtered", target: "/api/v1/tables/configuration?restart=luby", wantCode: http.StatusOK, wantRows: 1},
		{
			name: "filters combine", target: "/api/v1/tables/event?run.id=0&type=new_solution",
			wantCode: http.StatusOK, wantRows: 2,
		},
		{name: "null filter", target: "/api/v1/tables/raw?objective=null", wantCode: http.StatusOK, wantRows: 2},
		{name: "no match", target: "/api/v1/tables/problem?name=Q", wantCode: http.StatusOK, wantRows: 0},
		{
			name: "unknown column", target: "/api/v1/tables/run?bogus=1",
			wantCode: http.StatusBadRequest, errSub: "'bogus' is not a valid column for run table",
		},
		{
			name: "unknown table", target: "/api/v1/tables/nope",
			wantCode: http.StatusNotFound, errSub: "'nope' is not a valid table name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.errSub != "" {
				var resp errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Contains(t, resp.Error, tt.errSub)

				return
			}

			var resp struct {
				Rows []map[string]any `json:"rows"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Rows, tt.wantRows)
		})
	}
}

func TestHandleTable_RowValues(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	var resp struct {
		Name string           `json:"name"`
		Rows []map[string]any `json:"rows"`
	}

	rec := get(t, h, "/api/v1/tables/run?configuration.id=1", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, database.TableRun, resp.Name)
	require.Len(t, resp.Rows, 1)
	assert.InDelta(t, 0.6, resp.Rows[0]["objective_score"], 1e-9)
	assert.InDelta(t, 50, resp.Rows[0]["time_fsol"], 1e-9)
}

func TestHandleTableSchema(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	var resp struct {
		Name    string            `json:"name"`
		Columns []database.Column `json:"columns"`
	}

	rec := get(t, h, "/api/v1/tables/problem/schema", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, database.TableProblem, resp.Name)
	assert.Equal(t, []database.Column{
		{Name: "id", Type: database.TypeID},
		{Name: "name", Type: database.TypeString},
		{Name: "type", Type: database.TypeProblem},
	}, resp.Columns)

	rec = get(t, h, "/api/v1/tables/nope/schema", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProblemTypes(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	var resp []problemTypeResponse

	rec := get(t, h, "/api/v1/problem-types", &resp)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []problemTypeResponse{
		{Problem: "P", Type: "minimize", Arrow: "↓"},
	}, resp)
}

func TestDatasets(t *testing.T) {
	datasets := store.NewStore(testLogger(), &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})
	require.NoError(t, datasets.Start(context.Background()))

	_, h := newTestServer(t, nil, datasets)
	require.NoError(t, datasets.SaveDatabase(context.Background(), "nightly", testDatabase(t)))

	var list []store.Dataset

	rec := get(t, h, "/api/v1/datasets", &list)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, list, 1)
	assert.Equal(t, "nightly", list[0].Name)
	assert.Equal(t, 2, list[0].Runs)

	var runs []store.Run

	rec = get(t, h, "/api/v1/datasets/nightly/runs", &runs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runs, 2)
	require.NotNil(t, runs[1].ObjectiveScore)
	assert.InDelta(t, 0.6, *runs[1].ObjectiveScore, 1e-9)

	rec = get(t, h, "/api/v1/datasets/missing/runs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	empty, err := database.Build(testLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, datasets.SaveDatabase(context.Background(), "empty", empty))

	rec = get(t, h, "/api/v1/datasets/empty/runs", &runs)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, runs)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDatasets_NotRoutedWithoutStore(t *testing.T) {
	_, h := newTestServer(t, nil, nil)

	rec := get(t, h, "/api/v1/datasets", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, &config.APIConfig{
		Listen:    ":0",
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1},
	}, nil)

	rec := get(t, h, "/api/v1/tables", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/api/v1/tables", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health checks are not limited.
	rec = get(t, h, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterMap_Evict(t *testing.T) {
	rl := newRateLimiterMap(60)

	first := rl.getLimiter("10.0.0.1")
	assert.Same(t, first, rl.getLimiter("10.0.0.1"))

	rl.evict(time.Now().Add(time.Minute))
	assert.Empty(t, rl.limiters)
	assert.NotSame(t, first, rl.getLimiter("10.0.0.1"))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		expected   string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", expected: "192.0.2.1"},
		{name: "no port", remoteAddr: "192.0.2.1", expected: "192.0.2.1"},
		{name: "forwarded", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.7", expected: "203.0.113.7"},
		{name: "forwarded chain", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.7, 10.0.0.1", expected: "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr

			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.expected, extractIP(req))
		})
	}
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t, &config.APIConfig{
		Listen:      ":0",
		CORSOrigins: []string{"https://example.org"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://example.org")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(testLogger(), &config.APIConfig{Listen: "127.0.0.1:0"}, testDatabase(t), nil)

	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
}

func TestServer_ListenErrorStopsStore(t *testing.T) {
	datasets := &countingStore{Store: store.NewStore(testLogger(), &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})}

	srv := NewServer(testLogger(), &config.APIConfig{Listen: "127.0.0.1:-1"}, testDatabase(t), datasets)

	err := srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
	assert.Equal(t, 1, datasets.stops)
}

// countingStore records Stop calls.
type countingStore struct {
	store.Store
	stops int
}

func (c *countingStore) Stop() error {
	c.stops++

	return c.Store.Stop()
}

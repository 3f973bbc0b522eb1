package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/store"
)

func newServeTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestServeMux_Health(t *testing.T) {
	mux := newServeMux(newServeTestStore(t), t.TempDir(), []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestServeMux_Runs(t *testing.T) {
	st := newServeTestStore(t)
	ctx := context.Background()

	run := model.NewRun("copenhagen", 42, 100)
	require.NoError(t, st.CreateRun(ctx, run))
	require.NoError(t, st.CompleteRun(ctx, run.ID, 120))

	mux := newServeMux(st, t.TempDir(), []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/runs?city=copenhagen", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, model.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 120, runs[0].DotCount)
}

func TestServeMux_Runs_CityFilter(t *testing.T) {
	st := newServeTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateRun(ctx, model.NewRun("copenhagen", 1, 100)))
	require.NoError(t, st.CreateRun(ctx, model.NewRun("berlin", 2, 100)))

	mux := newServeMux(st, t.TempDir(), []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/runs?city=berlin", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "berlin", runs[0].City)
}

func TestServeMux_Files(t *testing.T) {
	dir := t.TempDir()
	content := `{"type":"FeatureCollection","features":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copenhagen_dots.geojson"), []byte(content), 0o644))

	mux := newServeMux(newServeTestStore(t), dir, []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/files/copenhagen_dots.geojson", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, content, rr.Body.String())
}

func TestServeMux_Files_NotFound(t *testing.T) {
	mux := newServeMux(newServeTestStore(t), t.TempDir(), []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/files/missing.geojson", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeMux_CORSHeader(t *testing.T) {
	mux := newServeMux(newServeTestStore(t), t.TempDir(), []string{"*"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dotmap.example.org")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/internal/brief"
	"argus/internal/event"
	"argus/internal/llm"
	"argus/internal/store"
)

type stubGateway struct{}

func (stubGateway) Generate(_ context.Context, req llm.Request) (string, error) {
	if strings.Contains(req.Prompt, "nation-wide") {
		return "overview text", nil
	}
	return "a brief (MEX1001)", nil
}

func testServer(t *testing.T) (*Server, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	err := st.UpsertEvents(context.Background(), []event.Event{
		{ID: "MEX1001", Country: "Mexico", Year: 2024, Month: 3,
			Date:  time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			State: "Oaxaca", Type: "Riots", SubType: "Mob violence", Fatalities: 4, Severity: 60},
	})
	require.NoError(t, err)

	orch, err := brief.New(st, stubGateway{})
	require.NoError(t, err)
	return NewServer(st, orch), st
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReportEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/report/Mexico/2024/3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report brief.SliceReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Len(t, report.Rows, 1)
	assert.Equal(t, "MEX1001", report.Rows[0].ID)
}

func TestReportEndpointBadSlice(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/report/Mexico/2024/13")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBriefsEndpointPersistsBundle(t *testing.T) {
	srv, st := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `{"country": "Mexico", "year": 2024, "month": 3}`
	resp, err := http.Post(ts.URL+"/api/v1/briefs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bundle store.Bundle
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))
	assert.NotEmpty(t, bundle.RunID)
	assert.Contains(t, bundle.Briefs, store.OverviewKey)

	saved, err := st.LatestBundle(context.Background(), "Mexico", 2024, 3)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, bundle.RunID, saved.RunID)
}

func TestBundleEndpointNotFound(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/bundles/Mexico/2030/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIngestEndpointUnconfigured(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/ingest", "application/json",
		strings.NewReader(`{"country": "Mexico", "year": 2024, "month": 3}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestBriefsEndpointRejectsBadBody(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/briefs", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

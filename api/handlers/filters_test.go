package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanpate/cqxdash/api/config"
	"github.com/ryanpate/cqxdash/api/handlers"
	apitesting "github.com/ryanpate/cqxdash/api/testing"
)

type filtersResponse struct {
	Submarkets        []string            `json:"submarkets"`
	CQEClusters       []string            `json:"cqeClusters"`
	MetricNames       []string            `json:"metricNames"`
	MetricMapping     map[string]string   `json:"metricMapping"`
	SubmarketClusters map[string][]string `json:"submarketClusters"`
}

func getFilters(t *testing.T) filtersResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	rr := httptest.NewRecorder()
	handlers.GetFilters(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp filtersResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func useClusterMap(t *testing.T, csvData string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submarket_clusters.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))

	old := config.ClusterMapPath()
	config.SetClusterMapPath(path)
	t.Cleanup(func() { config.SetClusterMapPath(old) })
}

func TestGetFilters_StoreFallback(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	// Point at a missing CSV: values fall back to what storage holds.
	config.SetClusterMapPath(filepath.Join(t.TempDir(), "missing.csv"))
	t.Cleanup(func() { config.SetClusterMapPath("submarket_clusters.csv") })

	resp := getFilters(t)
	assert.Equal(t, []string{"Dallas", "Houston"}, resp.Submarkets)
	assert.Equal(t, []string{"DAL1", "HOU1"}, resp.CQEClusters)
	assert.Len(t, resp.MetricNames, 11)
	assert.Equal(t, "VOICE_CDR_RET_25", resp.MetricMapping["Voice Retainability"])
	assert.Empty(t, resp.SubmarketClusters)
}

func TestGetFilters_ClusterMapIntersection(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	useClusterMap(t, `submarket,cqe_cluster
Dallas,DAL1
Dallas,DAL9
Phantom,PHA1
Houston,HOU1
`)

	resp := getFilters(t)
	// DAL9 and Phantom never appear in storage, so they are dropped.
	assert.Equal(t, []string{"Dallas", "Houston"}, resp.Submarkets)
	assert.Equal(t, []string{"DAL1", "HOU1"}, resp.CQEClusters)
	assert.Equal(t, []string{"DAL1"}, resp.SubmarketClusters["Dallas"])
	assert.NotContains(t, resp.SubmarketClusters, "Phantom")
}

func TestGetFilters_EmptyTable(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)

	config.SetClusterMapPath(filepath.Join(t.TempDir(), "missing.csv"))
	t.Cleanup(func() { config.SetClusterMapPath("submarket_clusters.csv") })

	resp := getFilters(t)
	assert.Empty(t, resp.Submarkets)
	assert.Empty(t, resp.CQEClusters)
	assert.Len(t, resp.MetricNames, 11, "metric catalog is static")
}

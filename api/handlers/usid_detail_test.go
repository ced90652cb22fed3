package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanpate/cqxdash/api/cqi"
	"github.com/ryanpate/cqxdash/api/handlers"
	apitesting "github.com/ryanpate/cqxdash/api/testing"
)

func TestGetUSIDDetail_RequiresUSID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/usid-detail", nil)
	rr := httptest.NewRecorder()
	handlers.GetUSIDDetail(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "usid parameter is required", resp["error"])
}

func TestGetUSIDDetail_Series(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/usid-detail?usid=100200", nil)
	rr := httptest.NewRecorder()
	handlers.GetUSIDDetail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var records []cqi.DailyRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	require.Len(t, records, 1, "seed data sits on a single day")

	rec := records[0]
	assert.Equal(t, 830.0, rec.TotalFailures)
	assert.Equal(t, uint64(3), rec.RecordCount)
	assert.NotEmpty(t, rec.Date)
}

func TestGetUSIDDetail_MetricFilter(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	req := httptest.NewRequest(http.MethodGet,
		"/api/usid-detail?usid=100200&metricName=Data+Accessibility", nil)
	rr := httptest.NewRecorder()
	handlers.GetUSIDDetail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var records []cqi.DailyRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, 30.0, records[0].TotalFailures)
	assert.Equal(t, uint64(1), records[0].RecordCount)
}

func TestGetUSIDDetail_UnknownUSID(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/usid-detail?usid=000000", nil)
	rr := httptest.NewRecorder()
	handlers.GetUSIDDetail(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var records []cqi.DailyRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

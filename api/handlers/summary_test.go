package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanpate/cqxdash/api/handlers"
	apitesting "github.com/ryanpate/cqxdash/api/testing"
)

func getSummary(t *testing.T) handlers.SummaryResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rr := httptest.NewRecorder()
	handlers.GetSummary(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp handlers.SummaryResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestGetSummary_Empty(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)

	resp := getSummary(t)
	assert.Equal(t, uint64(0), resp.TotalUSIDs)
	assert.Equal(t, uint64(0), resp.TotalRecords)
	assert.Equal(t, 0.0, resp.TotalFailures)
	assert.Equal(t, 0.0, resp.AvgFailures, "avg over empty set must not leak NaN")
	assert.Equal(t, 0.0, resp.MaxFailures)
	assert.Equal(t, 0.0, resp.AvgContribution)
	assert.NotEmpty(t, resp.LastUpdated)
}

func TestGetSummary_Window(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)

	inWindow := defaultSeed()
	// One row well outside the trailing week must be excluded.
	old := testNow.AddDate(0, 0, -30)
	outOfWindow := []seedRow{
		{"999999", "VOICE_CDR_RET_25", "Dallas", "DAL1", "Nokia", old, old.Add(time.Hour), 1000, -2.0, 90.0, 98.0},
	}
	seedContribution(t, append(inWindow, outOfWindow...))

	resp := getSummary(t)
	assert.Equal(t, uint64(2), resp.TotalUSIDs)
	assert.Equal(t, uint64(4), resp.TotalRecords)
	assert.Equal(t, 845.0, resp.TotalFailures)
	assert.Equal(t, 211.25, resp.AvgFailures)
	assert.Equal(t, 600.0, resp.MaxFailures)

	assert.Equal(t, testNow.AddDate(0, 0, -7).Format("2006-01-02"), resp.PeriodStart)
	assert.Equal(t, testNow.Format("2006-01-02"), resp.PeriodEnd)
	assert.Equal(t, testNow.Format(time.RFC3339), resp.LastUpdated)
}

func TestGetSummary_OffenderBuckets(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)
	seedContribution(t, defaultSeed())

	// Seed rows: failures 600, 200, 30, 15.
	resp := getSummary(t)
	assert.Equal(t, uint64(1), resp.CriticalOffenders)
	assert.Equal(t, uint64(1), resp.HighOffenders)
	assert.Equal(t, uint64(0), resp.MediumOffenders)
	assert.Equal(t, uint64(2), resp.LowOffenders)
}

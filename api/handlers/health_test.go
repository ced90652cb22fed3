package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanpate/cqxdash/api/config"
	"github.com/ryanpate/cqxdash/api/handlers"
	apitesting "github.com/ryanpate/cqxdash/api/testing"
)

func TestGetHealth_Healthy(t *testing.T) {
	apitesting.SetupTestClickHouse(t, testChDB)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	handlers.GetHealth(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestGetHealth_NoConnection(t *testing.T) {
	old := config.DB
	config.SetDB(nil)
	t.Cleanup(func() { config.SetDB(old) })

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()
	handlers.GetHealth(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "unhealthy", resp["status"])
}

func TestNotFound(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rr := httptest.NewRecorder()
	handlers.NotFound(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "endpoint not found", resp["error"])
}

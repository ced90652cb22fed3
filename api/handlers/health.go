package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ryanpate/cqxdash/api/config"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// GetHealth pings the warehouse with a short timeout. Unreachable storage
// reports 503 so load balancers stop routing here.
func GetHealth(w http.ResponseWriter, r *http.Request) {
	ts := clock.Now().UTC().Format(time.RFC3339)

	if config.DB == nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Timestamp: ts, Error: "clickhouse connection not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := config.DB.Ping(ctx); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Timestamp: ts, Error: SanitizeError(err)})
		return
	}

	writeJSON(w, healthResponse{Status: "healthy", Timestamp: ts})
}

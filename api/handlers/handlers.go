package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/ryanpate/cqxdash/api/config"
	"github.com/ryanpate/cqxdash/api/cqi"
)

var (
	catalog *cqi.Catalog
	clock   clockwork.Clock = clockwork.NewRealClock()
)

// Init wires the metric catalog and clock into the handler package. Called
// once from main before the router starts serving.
func Init(cat *cqi.Catalog, c clockwork.Clock) {
	catalog = cat
	if c != nil {
		clock = c
	}
}

func executor() *Executor {
	return NewExecutor(config.DB)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NotFound is the router fallback for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "endpoint not found")
}

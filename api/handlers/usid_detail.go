package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ryanpate/cqxdash/api/cqi"
)

// GetUSIDDetail returns the per-day series for one site. The usid parameter
// is required; period and metric filters are optional.
func GetUSIDDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	f := cqi.ParseFilterSet(r.URL.Query())
	if f.USID == "" {
		writeError(w, http.StatusBadRequest, "usid parameter is required")
		return
	}

	stmt, args := cqi.BuildDetailQuery(catalog, f)
	cols, rows, err := executor().Query(ctx, stmt, args...)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	records := cqi.NormalizeDetail(cols, rows)
	if records == nil {
		records = []cqi.DailyRecord{}
	}
	writeJSON(w, records)
}

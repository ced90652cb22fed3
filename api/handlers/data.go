package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/ryanpate/cqxdash/api/cqi"
)

// fetchAggregated runs the full pipeline for one filter selection: build the
// aggregate statement, execute it, normalize the rows. On an empty result it
// runs the unfiltered diagnostic count so logs show whether the table itself
// is empty or the filters excluded everything.
func fetchAggregated(ctx context.Context, f cqi.FilterSet) ([]cqi.AggregatedRecord, error) {
	stmt, args := cqi.BuildAggregateQuery(catalog, f)

	cols, rows, err := executor().Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	records := cqi.Normalize(cols, rows, f, catalog)
	if len(records) == 0 {
		logDiagnosticCount(ctx, f)
	}
	return records, nil
}

// logDiagnosticCount is log-only: its failure never affects the response.
func logDiagnosticCount(ctx context.Context, f cqi.FilterSet) {
	_, rows, err := executor().Query(ctx, cqi.DiagnosticCountQuery)
	if err != nil {
		log.Printf("Diagnostic count failed: %v", err)
		return
	}
	var total any
	if len(rows) > 0 && len(rows[0]) > 0 {
		total = rows[0][0]
	}
	log.Printf("Query returned no rows (table total: %v, filters: %+v)", total, f)
}

// GetData is the main dashboard endpoint: aggregated records for the current
// filter selection, always a JSON array (possibly empty).
func GetData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	f := cqi.ParseFilterSet(r.URL.Query())

	records, err := fetchAggregated(ctx, f)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	if records == nil {
		records = []cqi.AggregatedRecord{}
	}
	writeJSON(w, records)
}

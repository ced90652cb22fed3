package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ryanpate/cqxdash/api/cqi"
)

var exportHeader = []string{
	"usid", "metricName", "avgFailures", "totalFailures", "avgContribution",
	"totalContribution", "recordCount", "vendor", "cluster", "submarket",
	"avgActual", "avgTarget", "earliestPeriod", "latestPeriod",
}

// GetExport runs the same pipeline as GetData and streams the records as a
// CSV attachment.
func GetExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	f := cqi.ParseFilterSet(r.URL.Query())

	records, err := fetchAggregated(ctx, f)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	filename := fmt.Sprintf("cqi_data_%s.csv", clock.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, rec := range records {
		_ = cw.Write([]string{
			rec.USID,
			rec.MetricName,
			formatFloat(rec.AvgFailures),
			formatFloat(rec.TotalFailures),
			formatFloat(rec.AvgContribution),
			formatFloat(rec.TotalContribution),
			strconv.FormatUint(rec.RecordCount, 10),
			rec.Vendor,
			rec.Cluster,
			rec.Submarket,
			formatFloat(rec.AvgActual),
			formatFloat(rec.AvgTarget),
			derefString(rec.EarliestPeriod),
			derefString(rec.LatestPeriod),
		})
	}
	cw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

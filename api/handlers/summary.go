package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ryanpate/cqxdash/api/cqi"
)

// SummaryResponse is the fleet-wide rollup over the trailing week.
type SummaryResponse struct {
	TotalUSIDs        uint64  `json:"totalUsids"`
	TotalRecords      uint64  `json:"totalRecords"`
	TotalFailures     float64 `json:"totalFailures"`
	AvgFailures       float64 `json:"avgFailures"`
	MaxFailures       float64 `json:"maxFailures"`
	AvgContribution   float64 `json:"avgContribution"`
	CriticalOffenders uint64  `json:"criticalOffenders"`
	HighOffenders     uint64  `json:"highOffenders"`
	MediumOffenders   uint64  `json:"mediumOffenders"`
	LowOffenders      uint64  `json:"lowOffenders"`
	PeriodStart       string  `json:"periodStart"`
	PeriodEnd         string  `json:"periodEnd"`
	LastUpdated       string  `json:"lastUpdated"`
}

// GetSummary aggregates the trailing 7 days into headline numbers and
// offender buckets. The window comes from the injected clock and is widened
// to full-day boundaries like every other date filter.
func GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	now := clock.Now().UTC()
	startDay := now.AddDate(0, 0, -7).Format("2006-01-02")
	endDay := now.Format("2006-01-02")

	stmt, args := cqi.BuildSummaryQuery(catalog,
		startDay+" 00:00:00", endDay+" 23:59:59")

	cols, rows, err := executor().Query(ctx, stmt, args...)
	if err != nil {
		writeQueryError(w, err)
		return
	}

	resp := SummaryResponse{
		PeriodStart: startDay,
		PeriodEnd:   endDay,
		LastUpdated: now.Format(time.RFC3339),
	}
	if len(rows) > 0 {
		row := rows[0]
		for i, col := range cols {
			if i >= len(row) {
				break
			}
			v := row[i]
			switch col {
			case "total_usids":
				resp.TotalUSIDs = uint64(cqi.SanitizeCount(v))
			case "total_records":
				resp.TotalRecords = uint64(cqi.SanitizeCount(v))
			case "total_failures":
				resp.TotalFailures = cqi.SanitizeCount(v)
			case "avg_failures":
				resp.AvgFailures = cqi.SanitizeCount(v)
			case "max_failures":
				resp.MaxFailures = cqi.SanitizeCount(v)
			case "avg_contribution":
				resp.AvgContribution = cqi.SanitizeContribution(v)
			case "critical_offenders":
				resp.CriticalOffenders = uint64(cqi.SanitizeCount(v))
			case "high_offenders":
				resp.HighOffenders = uint64(cqi.SanitizeCount(v))
			case "medium_offenders":
				resp.MediumOffenders = uint64(cqi.SanitizeCount(v))
			case "low_offenders":
				resp.LowOffenders = uint64(cqi.SanitizeCount(v))
			}
		}
	}

	writeJSON(w, resp)
}

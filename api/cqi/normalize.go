package cqi

import (
	"fmt"
	"time"
)

// periodLayout is the timestamp shape the dashboard consumes.
const periodLayout = "2006-01-02T15:04:05"

// AggregatedRecord is one row of the main dashboard payload. All numeric
// fields are sanitized: never NaN or Inf.
type AggregatedRecord struct {
	USID              string  `json:"usid"`
	MetricName        string  `json:"metricName"`
	AvgFailures       float64 `json:"avgFailures"`
	TotalFailures     float64 `json:"totalFailures"`
	AvgContribution   float64 `json:"avgContribution"`
	TotalContribution float64 `json:"totalContribution"`
	RecordCount       uint64  `json:"recordCount"`
	Vendor            string  `json:"vendor"`
	Cluster           string  `json:"cluster"`
	Submarket         string  `json:"submarket"`
	AvgActual         float64 `json:"avgActual"`
	AvgTarget         float64 `json:"avgTarget"`
	EarliestPeriod    *string `json:"earliestPeriod"`
	LatestPeriod      *string `json:"latestPeriod"`
}

// DailyRecord is one point of the per-day series behind /usid-detail.
type DailyRecord struct {
	Date            string  `json:"date"`
	AvgFailures     float64 `json:"avgFailures"`
	TotalFailures   float64 `json:"totalFailures"`
	AvgContribution float64 `json:"avgContribution"`
	AvgActual       float64 `json:"avgActual"`
	AvgTarget       float64 `json:"avgTarget"`
	RecordCount     uint64  `json:"recordCount"`
}

// Normalize converts generic result rows into the client record shape,
// dispatching on the statement's result aliases so column order never
// matters. It is total: malformed cells degrade to zero values instead of
// failing the batch.
func Normalize(columns []string, rows [][]any, f FilterSet, cat *Catalog) []AggregatedRecord {
	out := make([]AggregatedRecord, 0, len(rows))
	for _, row := range rows {
		var rec AggregatedRecord
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			v := row[i]
			switch col {
			case "usid":
				rec.USID = toString(v)
			case "metric_name":
				rec.MetricName = metricLabel(toString(v), f, cat)
			case "avg_failures":
				rec.AvgFailures = SanitizeCount(v)
			case "total_failures":
				rec.TotalFailures = SanitizeCount(v)
			case "avg_contribution":
				rec.AvgContribution = SanitizeContribution(v)
			case "total_contribution":
				rec.TotalContribution = SanitizeContribution(v)
			case "record_count":
				rec.RecordCount = toUint(v)
			case "vendor":
				rec.Vendor = toString(v)
			case "cluster":
				rec.Cluster = toString(v)
			case "submarket":
				rec.Submarket = toString(v)
			case "avg_actual":
				rec.AvgActual = SanitizeCount(v)
			case "avg_target":
				rec.AvgTarget = SanitizeCount(v)
			case "earliest_period":
				rec.EarliestPeriod = toTimestamp(v)
			case "latest_period":
				rec.LatestPeriod = toTimestamp(v)
			}
		}
		out = append(out, rec)
	}
	return out
}

// NormalizeDetail converts per-day series rows.
func NormalizeDetail(columns []string, rows [][]any) []DailyRecord {
	out := make([]DailyRecord, 0, len(rows))
	for _, row := range rows {
		var rec DailyRecord
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			v := row[i]
			switch col {
			case "day":
				rec.Date = toDate(v)
			case "avg_failures":
				rec.AvgFailures = SanitizeCount(v)
			case "total_failures":
				rec.TotalFailures = SanitizeCount(v)
			case "avg_contribution":
				rec.AvgContribution = SanitizeContribution(v)
			case "avg_actual":
				rec.AvgActual = SanitizeCount(v)
			case "avg_target":
				rec.AvgTarget = SanitizeCount(v)
			case "record_count":
				rec.RecordCount = toUint(v)
			}
		}
		out = append(out, rec)
	}
	return out
}

// metricLabel maps the internal metric value back to its client label: the
// "All" sentinel at the coarse grain, the display name when known, the raw
// id otherwise.
func metricLabel(internal string, f FilterSet, cat *Catalog) string {
	if f.AggregateAcrossMetrics() || internal == allMetricsSentinel {
		return AllMetricsLabel
	}
	if display, ok := cat.Forward(internal); ok {
		return display
	}
	return internal
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toUint(v any) uint64 {
	switch x := v.(type) {
	case uint64:
		return x
	case *uint64:
		if x == nil {
			return 0
		}
		return *x
	}
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return uint64(f)
}

func toTimestamp(v any) *string {
	t, ok := toTime(v)
	if !ok || t.IsZero() {
		return nil
	}
	s := t.Format(periodLayout)
	return &s
}

func toDate(v any) string {
	if t, ok := toTime(v); ok {
		return t.Format("2006-01-02")
	}
	return toString(v)
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, true
	}
	return time.Time{}, false
}

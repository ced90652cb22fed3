package cqi

import (
	"fmt"
	"strings"
)

const (
	// Table is the ClickHouse table every statement reads.
	Table = "cqi_contribution"

	// MaxGroups caps the aggregate result set.
	MaxGroups = 1000

	// AllMetricsLabel is the client-facing metric label when no metric
	// filter was given.
	AllMetricsLabel = "All"

	// allMetricsSentinel is the in-statement literal standing in for the
	// metric column at the coarse grain.
	allMetricsSentinel = "ALL"
)

// DiagnosticCountQuery is the unfiltered row count run (log-only) when an
// aggregate query comes back empty, to tell an empty table apart from
// over-restrictive filters.
const DiagnosticCountQuery = "SELECT count() FROM " + Table

// quoteAllowList renders the catalog's metric ids as a quoted literal list.
// The ids are fixed trusted data, never user input, so they are interpolated
// rather than bound.
func quoteAllowList(cat *Catalog) string {
	ids := cat.AllowList()
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return strings.Join(quoted, ", ")
}

// BuildAggregateQuery assembles the aggregate statement and positional args
// for one filter selection. The same FilterSet always yields a byte-identical
// statement: predicates are appended in a fixed order and placeholders are
// numbered by insertion.
func BuildAggregateQuery(cat *Catalog, f FilterSet) (string, []any) {
	metricCol := "metric_name"
	if f.AggregateAcrossMetrics() {
		metricCol = "'" + allMetricsSentinel + "'"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT
    usid,
    %s AS metric_name,
    avg(extra_failures) AS avg_failures,
    sum(extra_failures) AS total_failures,
    avg(idx_contribution) AS avg_contribution,
    sum(idx_contribution) AS total_contribution,
    count() AS record_count,
    max(vendor) AS vendor,
    max(cqe_cluster) AS cluster,
    max(submarket) AS submarket,
    avg(cqi_actual) AS avg_actual,
    avg(cqi_target) AS avg_target,
    min(period_start) AS earliest_period,
    max(period_end) AS latest_period
FROM %s
WHERE metric_name IN (%s)`, metricCol, Table, quoteAllowList(cat))

	args := appendFilterPredicates(&sb, nil, cat, f, !f.AggregateAcrossMetrics())

	if f.AggregateAcrossMetrics() {
		sb.WriteString("\nGROUP BY usid")
	} else {
		sb.WriteString("\nGROUP BY usid, metric_name")
	}

	if f.SortKey == SortByFailures {
		sb.WriteString("\nORDER BY total_failures DESC NULLS LAST")
	} else {
		sb.WriteString("\nORDER BY avg_contribution ASC NULLS LAST")
	}

	fmt.Fprintf(&sb, "\nLIMIT %d", MaxGroups)
	return sb.String(), args
}

// BuildDetailQuery assembles the per-day series for one USID (the trend view
// behind /usid-detail).
func BuildDetailQuery(cat *Catalog, f FilterSet) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT
    toDate(period_start) AS day,
    avg(extra_failures) AS avg_failures,
    sum(extra_failures) AS total_failures,
    avg(idx_contribution) AS avg_contribution,
    avg(cqi_actual) AS avg_actual,
    avg(cqi_target) AS avg_target,
    count() AS record_count
FROM %s
WHERE metric_name IN (%s)`, Table, quoteAllowList(cat))

	args := appendFilterPredicates(&sb, nil, cat, f, f.MetricDisplayName != "")

	sb.WriteString("\nGROUP BY day\nORDER BY day ASC")
	return sb.String(), args
}

// BuildSummaryQuery assembles the fleet-wide rollup over a trailing window.
// Offender buckets are keyed on per-row extra failures.
func BuildSummaryQuery(cat *Catalog, windowStart, windowEnd string) (string, []any) {
	stmt := fmt.Sprintf(`SELECT
    uniqExact(usid) AS total_usids,
    count() AS total_records,
    sum(extra_failures) AS total_failures,
    avg(extra_failures) AS avg_failures,
    max(extra_failures) AS max_failures,
    avg(idx_contribution) AS avg_contribution,
    countIf(extra_failures > 500) AS critical_offenders,
    countIf(extra_failures > 100 AND extra_failures <= 500) AS high_offenders,
    countIf(extra_failures >= 50 AND extra_failures <= 100) AS medium_offenders,
    countIf(extra_failures >= 10 AND extra_failures < 50) AS low_offenders
FROM %s
WHERE metric_name IN (%s) AND period_start >= $1 AND period_end <= $2`,
		Table, quoteAllowList(cat))
	return stmt, []any{windowStart, windowEnd}
}

// appendFilterPredicates appends the user-supplied constraints in a fixed
// order, binding every value as a positional parameter. Date strings are
// widened to full-day boundaries here; malformed dates flow through and
// surface as warehouse errors.
func appendFilterPredicates(sb *strings.Builder, args []any, cat *Catalog, f FilterSet, withMetricEquality bool) []any {
	if f.Submarket != "" {
		args = append(args, f.Submarket)
		fmt.Fprintf(sb, "\n  AND submarket = $%d", len(args))
	}

	if len(f.Clusters) > 0 {
		placeholders := make([]string, len(f.Clusters))
		for i, c := range f.Clusters {
			args = append(args, c)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		fmt.Fprintf(sb, "\n  AND cqe_cluster IN (%s)", strings.Join(placeholders, ", "))
	}

	if f.PeriodStart != "" {
		args = append(args, f.PeriodStart+" 00:00:00")
		fmt.Fprintf(sb, "\n  AND period_start >= $%d", len(args))
	}

	if f.PeriodEnd != "" {
		args = append(args, f.PeriodEnd+" 23:59:59")
		fmt.Fprintf(sb, "\n  AND period_end <= $%d", len(args))
	}

	if withMetricEquality && f.MetricDisplayName != "" {
		// Unknown display names pass through as-is; the allow-list predicate
		// makes the statement return no rows rather than fail.
		id, ok := cat.Reverse(f.MetricDisplayName)
		if !ok {
			id = f.MetricDisplayName
		}
		args = append(args, id)
		fmt.Fprintf(sb, "\n  AND metric_name = $%d", len(args))
	}

	if f.USID != "" {
		args = append(args, f.USID)
		fmt.Fprintf(sb, "\n  AND usid = $%d", len(args))
	}

	return args
}

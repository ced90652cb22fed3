package cqi

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggregateColumns = []string{
	"usid", "metric_name", "avg_failures", "total_failures",
	"avg_contribution", "total_contribution", "record_count",
	"vendor", "cluster", "submarket", "avg_actual", "avg_target",
	"earliest_period", "latest_period",
}

func TestNormalizeAggregateRow(t *testing.T) {
	cat := NewCatalog()
	f := FilterSet{MetricDisplayName: "Voice Retainability"}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)

	rows := [][]any{{
		"100200", "VOICE_CDR_RET_25", 12.5, 250.0,
		-0.8, -16.0, uint64(20),
		"Nokia", "DAL1", "Dallas", 96.5, 98.0,
		start, end,
	}}

	recs := Normalize(aggregateColumns, rows, f, cat)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "100200", rec.USID)
	assert.Equal(t, "Voice Retainability", rec.MetricName)
	assert.Equal(t, 12.5, rec.AvgFailures)
	assert.Equal(t, 250.0, rec.TotalFailures)
	assert.Equal(t, -0.8, rec.AvgContribution)
	assert.Equal(t, -16.0, rec.TotalContribution)
	assert.Equal(t, uint64(20), rec.RecordCount)
	assert.Equal(t, "Nokia", rec.Vendor)
	assert.Equal(t, "DAL1", rec.Cluster)
	assert.Equal(t, "Dallas", rec.Submarket)
	require.NotNil(t, rec.EarliestPeriod)
	assert.Equal(t, "2025-01-01T00:00:00", *rec.EarliestPeriod)
	require.NotNil(t, rec.LatestPeriod)
	assert.Equal(t, "2025-01-31T23:00:00", *rec.LatestPeriod)
}

func TestNormalizeNeverEmitsNaN(t *testing.T) {
	cat := NewCatalog()
	rows := [][]any{{
		"100200", "ALL", math.NaN(), math.Inf(1),
		math.NaN(), math.Inf(-1), uint64(0),
		"", "", "", math.NaN(), math.NaN(),
		nil, nil,
	}}

	recs := Normalize(aggregateColumns, rows, FilterSet{}, cat)
	require.Len(t, recs, 1)

	// The whole batch must survive json.Marshal: no NaN or Inf anywhere.
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"earliestPeriod":null`)

	rec := recs[0]
	assert.Equal(t, 0.0, rec.AvgFailures)
	assert.Equal(t, 0.0, rec.TotalFailures)
	assert.Equal(t, 0.0, rec.AvgContribution)
	assert.Equal(t, 0.0, rec.TotalContribution)
	assert.Nil(t, rec.EarliestPeriod)
	assert.Nil(t, rec.LatestPeriod)
}

func TestNormalizeClampsNegativeQualityValues(t *testing.T) {
	cat := NewCatalog()
	cols := []string{"usid", "avg_actual", "avg_target"}

	recs := Normalize(cols, [][]any{{"1", -5.0, -7.0}}, FilterSet{}, cat)
	require.Len(t, recs, 1)
	assert.Equal(t, 0.0, recs[0].AvgActual)
	assert.Equal(t, 0.0, recs[0].AvgTarget)

	detailCols := []string{"day", "avg_actual", "avg_target"}
	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	daily := NormalizeDetail(detailCols, [][]any{{day, -5.0, -7.0}})
	require.Len(t, daily, 1)
	assert.Equal(t, 0.0, daily[0].AvgActual)
	assert.Equal(t, 0.0, daily[0].AvgTarget)
}

func TestNormalizeMetricLabel(t *testing.T) {
	cat := NewCatalog()
	cols := []string{"usid", "metric_name"}

	// Coarse grain: sentinel becomes "All".
	recs := Normalize(cols, [][]any{{"1", "ALL"}}, FilterSet{}, cat)
	require.Len(t, recs, 1)
	assert.Equal(t, "All", recs[0].MetricName)

	// Known id maps to its display name.
	f := FilterSet{MetricDisplayName: "Signal Quality"}
	recs = Normalize(cols, [][]any{{"1", "LTE_IQI_QUALITY_25"}}, f, cat)
	assert.Equal(t, "Signal Quality", recs[0].MetricName)

	// Unknown id passes through raw.
	recs = Normalize(cols, [][]any{{"1", "LEGACY_METRIC"}}, f, cat)
	assert.Equal(t, "LEGACY_METRIC", recs[0].MetricName)
}

func TestNormalizeEmpty(t *testing.T) {
	cat := NewCatalog()
	recs := Normalize(aggregateColumns, nil, FilterSet{}, cat)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestNormalizeDetail(t *testing.T) {
	cols := []string{"day", "avg_failures", "total_failures", "avg_contribution", "avg_actual", "avg_target", "record_count"}
	day := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	recs := NormalizeDetail(cols, [][]any{
		{day, 4.0, 16.0, -0.2, 97.1, 98.0, uint64(4)},
	})
	require.Len(t, recs, 1)
	assert.Equal(t, "2025-02-10", recs[0].Date)
	assert.Equal(t, 16.0, recs[0].TotalFailures)
	assert.Equal(t, uint64(4), recs[0].RecordCount)
}

package cqi

import (
	"net/url"
	"strings"
)

// Sort keys accepted by the sortingCriteria query parameter.
const (
	SortByContribution = "contribution"
	SortByFailures     = "failures"
)

// FilterSet is one dashboard filter selection. Zero values mean "no
// constraint". Dates stay as raw YYYY-MM-DD strings and are widened to day
// boundaries when the statement is built.
type FilterSet struct {
	Submarket         string
	Clusters          []string
	PeriodStart       string
	PeriodEnd         string
	MetricDisplayName string
	USID              string
	SortKey           string
}

// AggregateAcrossMetrics reports whether the selection spans all metrics,
// which changes the aggregation grain from (usid, metric) to usid.
func (f FilterSet) AggregateAcrossMetrics() bool {
	return f.MetricDisplayName == ""
}

// ParseFilterSet extracts a FilterSet from request query parameters. Absent
// parameters impose no constraint; blank cluster entries are dropped; an
// unknown sortingCriteria falls back to contribution.
func ParseFilterSet(q url.Values) FilterSet {
	f := FilterSet{
		Submarket:         strings.TrimSpace(q.Get("submarket")),
		PeriodStart:       strings.TrimSpace(q.Get("periodStart")),
		PeriodEnd:         strings.TrimSpace(q.Get("periodEnd")),
		MetricDisplayName: strings.TrimSpace(q.Get("metricName")),
		USID:              strings.TrimSpace(q.Get("usid")),
		SortKey:           SortByContribution,
	}

	if raw := q.Get("cqeClusters"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				f.Clusters = append(f.Clusters, c)
			}
		}
	}

	if q.Get("sortingCriteria") == SortByFailures {
		f.SortKey = SortByFailures
	}

	return f
}

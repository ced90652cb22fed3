package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ryanpate/cqxdash/api/config"
	"github.com/ryanpate/cqxdash/api/cqi"
)

type filtersResponse struct {
	Submarkets        []string            `json:"submarkets"`
	CQEClusters       []string            `json:"cqeClusters"`
	MetricNames       []string            `json:"metricNames"`
	MetricMapping     map[string]string   `json:"metricMapping"`
	SubmarketClusters map[string][]string `json:"submarketClusters"`
}

// GetFilters returns the distinct filter values the dashboard can offer:
// submarkets and clusters observed in storage, reconciled against the
// cluster map CSV, plus the metric display names and mapping.
func GetFilters(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	ex := executor()

	var submarkets, clusters []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		submarkets, err = ex.queryStrings(gctx, fmt.Sprintf(
			"SELECT DISTINCT submarket FROM %s WHERE submarket != '' ORDER BY submarket", cqi.Table))
		return err
	})
	g.Go(func() error {
		var err error
		clusters, err = ex.queryStrings(gctx, fmt.Sprintf(
			"SELECT DISTINCT cqe_cluster FROM %s WHERE cqe_cluster != '' ORDER BY cqe_cluster", cqi.Table))
		return err
	})
	if err := g.Wait(); err != nil {
		writeQueryError(w, err)
		return
	}

	// Re-read on every request so operators can swap the CSV without a
	// restart. A missing or malformed file degrades to the raw store values.
	cm, err := cqi.LoadClusterMap(config.ClusterMapPath())
	if err != nil {
		slog.Warn("cluster map unavailable, using store values",
			"path", config.ClusterMapPath(), "error", err)
		cm = cqi.ClusterMap{}
	}
	opts := cqi.ResolveFilters(cm, submarkets, clusters)

	writeJSON(w, filtersResponse{
		Submarkets:        opts.Submarkets,
		CQEClusters:       opts.Clusters,
		MetricNames:       catalog.DisplayNames(),
		MetricMapping:     catalog.Mapping(),
		SubmarketClusters: opts.SubmarketClusters,
	})
}

package cqi

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// ClusterMap is the reference submarket-to-cluster assignment loaded from
// the operator-maintained CSV.
type ClusterMap map[string][]string

// FilterOptions is the reconciled filter vocabulary the dashboard offers.
type FilterOptions struct {
	Submarkets        []string            `json:"submarkets"`
	Clusters          []string            `json:"cqeClusters"`
	SubmarketClusters map[string][]string `json:"submarketClusters"`
}

// LoadClusterMap reads the submarket/cluster CSV at path.
func LoadClusterMap(path string) (ClusterMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cluster map: %w", err)
	}
	defer f.Close()
	return readClusterMap(f)
}

func readClusterMap(r io.Reader) (ClusterMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cluster map: %w", err)
	}

	submarketCol, clusterCol := 0, 1
	start := 0
	if len(rows) > 0 && isClusterHeader(rows[0]) {
		for i, h := range rows[0] {
			switch normalizeHeader(h) {
			case "submarket", "submkt":
				submarketCol = i
			case "cqe_cluster", "cqecluster", "cluster":
				clusterCol = i
			}
		}
		start = 1
	}

	cm := make(ClusterMap)
	for _, row := range rows[start:] {
		if len(row) <= submarketCol || len(row) <= clusterCol {
			continue
		}
		submarket := strings.TrimSpace(row[submarketCol])
		cluster := strings.TrimSpace(row[clusterCol])
		if submarket == "" || cluster == "" {
			continue
		}
		cm[submarket] = append(cm[submarket], cluster)
	}
	return cm, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isClusterHeader(row []string) bool {
	for _, h := range row {
		switch normalizeHeader(h) {
		case "submarket", "submkt", "cqe_cluster", "cqecluster", "cluster":
			return true
		}
	}
	return false
}

// ResolveFilters reconciles the reference cluster map against the values
// actually present in storage. Only submarkets and clusters that appear in
// both survive; mismatches are logged, never fatal. An empty map falls back
// to the raw store values.
func ResolveFilters(cm ClusterMap, storeSubmarkets, storeClusters []string) FilterOptions {
	if len(cm) == 0 {
		return FilterOptions{
			Submarkets:        sortedCopy(storeSubmarkets),
			Clusters:          sortedCopy(storeClusters),
			SubmarketClusters: map[string][]string{},
		}
	}

	haveSubmarket := toSet(storeSubmarkets)
	haveCluster := toSet(storeClusters)

	opts := FilterOptions{
		Submarkets:        []string{},
		Clusters:          []string{},
		SubmarketClusters: map[string][]string{},
	}
	clusterSeen := map[string]bool{}

	for submarket, clusters := range cm {
		if !haveSubmarket[submarket] {
			slog.Warn("cluster map submarket absent from storage", "submarket", submarket)
			continue
		}
		// A submarket known to both sides stays listed even if none of its
		// mapped clusters survive the intersection.
		opts.Submarkets = append(opts.Submarkets, submarket)

		var kept []string
		for _, c := range clusters {
			if !haveCluster[c] {
				slog.Warn("cluster map cluster absent from storage",
					"submarket", submarket, "cluster", c)
				continue
			}
			kept = append(kept, c)
			if !clusterSeen[c] {
				clusterSeen[c] = true
				opts.Clusters = append(opts.Clusters, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.Strings(kept)
		opts.SubmarketClusters[submarket] = kept
	}

	sort.Strings(opts.Submarkets)
	sort.Strings(opts.Clusters)
	return opts
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func toSet(in []string) map[string]bool {
	s := make(map[string]bool, len(in))
	for _, v := range in {
		s[v] = true
	}
	return s
}

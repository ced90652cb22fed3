package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildInfo exposes version metadata set at startup.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cqxdash_build_info",
		Help: "Build information for the cqxdash API",
	}, []string{"version", "commit", "date"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cqxdash_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cqxdash_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	clickhouseQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cqxdash_clickhouse_queries_total",
		Help: "Total ClickHouse queries by outcome",
	}, []string{"status"})

	clickhouseQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cqxdash_clickhouse_query_duration_seconds",
		Help:    "ClickHouse query latency",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordClickHouseQuery records the duration and outcome of one warehouse
// query.
func RecordClickHouseQuery(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	clickhouseQueriesTotal.WithLabelValues(status).Inc()
	clickhouseQueryDuration.Observe(duration.Seconds())
}

// Middleware instruments every request with a counter and latency histogram
// keyed on the chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

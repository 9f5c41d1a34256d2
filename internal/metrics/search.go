package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search_api",
			Name:      "search_requests_total",
			Help:      "Total number of search and fetch requests",
		},
		[]string{"resource", "operation", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "search_api",
			Name:      "request_duration_seconds",
			Help:      "Search and fetch request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"resource", "operation"},
	)

	FacetsRequestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search_api",
			Name:      "facets_requested_total",
			Help:      "Total facets compiled into search requests",
		},
		[]string{"kind"},
	)

	ResultsCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "search_api",
			Name:      "results_cache_total",
			Help:      "Search results cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(FacetsRequestedTotal)
	prometheus.MustRegister(ResultsCacheTotal)
	searchMetricsRegistered = true
}

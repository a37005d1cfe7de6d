package querycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit      = "hit"
	resultMiss     = "miss"
	resultExpired  = "expired"
	resultStoreHit = "store_hit"
)

type metrics struct {
	requests      *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	fetchErrors   prometheus.Counter
}

// newMetrics registers the cache collectors with reg; a nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "query_cache_requests_total",
			Help:      "Query cache lookups by result.",
		}, []string{"result"}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "remote_query_duration_seconds",
			Help:      "Time spent fetching query results from the remote query service.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "remote_query_errors_total",
			Help:      "Remote query failures.",
		}),
	}
}

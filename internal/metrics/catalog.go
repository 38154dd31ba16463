package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "knowledgehub"

// Search, topic cache and lifecycle Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search strategy executions",
		},
		[]string{"strategy", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search strategy duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	HybridDegradationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_hybrid_degradations_total",
			Help:      "Hybrid searches served keyword-only because the semantic branch failed",
		},
	)

	TopicRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topic_cache_refreshes_total",
			Help:      "Active topic refresh attempts",
		},
		[]string{"result"}, // "ok" / "error"
	)

	LifecycleTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Applied resource status transitions",
		},
		[]string{"from", "to"},
	)

	ResourceClicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_clicks_total",
			Help:      "Recorded resource clicks",
		},
	)
)

var registerCatalog sync.Once

// RegisterCatalogMetrics registers the search, topic and lifecycle collectors. Repeated calls are no-ops.
func RegisterCatalogMetrics() {
	registerCatalog.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			HybridDegradationsTotal,
			TopicRefreshesTotal,
			LifecycleTransitionsTotal,
			ResourceClicksTotal,
		)
	})
}

// TopicRefreshObserver adapts TopicRefreshesTotal to topic.Cache's refresh callback.
func TopicRefreshObserver(ok bool) {
	if ok {
		TopicRefreshesTotal.WithLabelValues("ok").Inc()
		return
	}
	TopicRefreshesTotal.WithLabelValues("error").Inc()
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Labels shared by the provider-side embedding collectors.
var providerModel = []string{"provider", "model"}

// Embedding provider, rate limiter and cache collectors.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding provider calls by outcome",
	}, append(providerModel, "status"))

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Latency of successful embedding provider calls",
		Buckets:   prometheus.ExponentialBucketsRange(0.05, 10, 8),
	}, providerModel)

	EmbeddingTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "tokens_total",
		Help:      "Tokens billed by the embedding provider",
	}, append(providerModel, "type"))

	EmbeddingErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "errors_total",
		Help:      "Failed embedding provider calls by reason",
	}, append(providerModel, "error_type"))

	EmbeddingRateLimitWait = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting for an embedding rate-limit token",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"provider"})

	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Embedding cache lookups by result (hit, miss)",
	}, []string{"result"})

	registerEmbedding sync.Once
)

// RegisterEmbeddingMetrics registers the embedding collectors with the default registry.
// Repeated calls are no-ops.
func RegisterEmbeddingMetrics() {
	registerEmbedding.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingRateLimitWait,
			EmbeddingCacheTotal,
		)
	})
}

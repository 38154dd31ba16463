package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests no route matched, so raw paths never become label values.
const unmatchedRoute = "unmatched"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route pattern",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		},
	)

	registerHTTP sync.Once
)

// Middleware records request count, latency and in-flight requests, labelled by chi route
// pattern ("/api/v1/resources/{id}"). The HTTP collectors register on first use.
func Middleware() func(next http.Handler) http.Handler {
	registerHTTP.Do(func() {
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpRequestsInFlight)
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			labels := []string{r.Method, normalizePath(routePattern(r)), strconv.Itoa(status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
		})
	}
}

// routePattern is read after the handler ran, once chi has resolved the full pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

func normalizePath(pattern string) string {
	if pattern == "" || pattern == "/*" {
		return unmatchedRoute
	}
	return pattern
}

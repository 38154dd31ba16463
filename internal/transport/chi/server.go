package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	logpkg "github.com/cengkuru/costknowledgehub/internal/logger"
	"github.com/cengkuru/costknowledgehub/internal/metrics"
	healthuc "github.com/cengkuru/costknowledgehub/internal/usecase/health"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configure request defaults and write protection.
type Options struct {
	APIKeys         []string
	DefaultPageSize int
	MaxPageSize     int
	Weights         request.Weights
}

// Server serves the catalog HTTP API.
type Server struct {
	resources ResourceService
	lifecycle LifecycleService
	search    SearchService
	topics    TopicStore
	health    HealthChecker
	opts      Options
	logger    *zap.Logger
}

// NewServer creates an HTTP API server. topics may be nil to disable the taxonomy routes.
func NewServer(
	resources ResourceService,
	lifecycle LifecycleService,
	search SearchService,
	topics TopicStore,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = request.DefaultLimit
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = request.MaxLimit
	}
	if opts.Weights == (request.Weights{}) {
		opts.Weights = request.DefaultWeights()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		resources: resources,
		lifecycle: lifecycle,
		search:    search,
		topics:    topics,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/search/keyword", s.KeywordSearch)
		r.Get("/search/semantic", s.SemanticSearch)

		r.Get("/resources/{id}", s.GetResource)
		r.Get("/resources/{id}/transitions", s.ListTransitions)
		r.Post("/resources/{id}/clicks", s.RecordClick)

		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(s.opts.APIKeys))
			r.Post("/resources", s.CreateResource)
			r.Patch("/resources/{id}", s.PatchResource)
			r.Post("/resources/{id}/transitions", s.TransitionResource)
			if s.topics != nil {
				r.Put("/topics", s.ReplaceTopics)
			}
		})

		if s.topics != nil {
			r.Get("/topics", s.ListTopics)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	// FromContext falls back to a no-op logger outside the wide-event middleware.
	if l := logpkg.FromContext(r.Context()); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return s.logger
}

package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means the catalog still serves reads, without search index or embeddings.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	ComponentDatabase  = "database"
	ComponentIndex     = "search_index"
	ComponentEmbedding = "embedding"
)

const defaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	index     IndexChecker
	embedding EmbeddingChecker
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Service. index and embedding can be nil.
func New(db DBPinger, index IndexChecker, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, index: index, embedding: embedding, timeout: defaultCheckTimeout, logger: logger}
}

// Check probes every component concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult)
	)
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			s.logger.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}

	var g errgroup.Group
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		record(ComponentDatabase, s.db.Ping(cctx))
		return nil
	})
	if s.index != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			ok, err := s.index.IndexReady(cctx)
			if err == nil && !ok {
				err = errIndexMissing
			}
			record(ComponentIndex, err)
			return nil
		})
	}
	if s.embedding != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			record(ComponentEmbedding, s.embedding.HealthCheck(cctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentDatabase] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

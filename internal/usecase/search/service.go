package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/mode"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/domain/topic"
)

// Candidate window defaults.
const (
	DefaultCandidatePool     = 100
	DefaultSemanticScanLimit = 1000
)

// Options tune the ranking engine. Zero values use defaults.
type Options struct {
	// CandidatePool caps keyword candidates per query.
	CandidatePool int
	// SemanticScanLimit caps the embedded resources scored by the semantic strategy.
	SemanticScanLimit int
	Semantic          SemanticStrategy

	Requests     *prometheus.CounterVec   // labels: strategy, status
	Duration     *prometheus.HistogramVec // labels: strategy
	Degradations prometheus.Counter
}

// Service ranks PUBLISHED resources with keyword, heuristic-semantic and hybrid strategies.
type Service struct {
	repo     Repository
	topics   TopicSnapshotter
	semantic SemanticStrategy
	pool     int
	scan     int
	opts     Options
	logger   *zap.Logger
}

// New creates a search service.
func New(repo Repository, topics TopicSnapshotter, opts Options, logger *zap.Logger) *Service {
	if opts.CandidatePool <= 0 {
		opts.CandidatePool = DefaultCandidatePool
	}
	if opts.SemanticScanLimit <= 0 {
		opts.SemanticScanLimit = DefaultSemanticScanLimit
	}
	if opts.Semantic == nil {
		opts.Semantic = HeuristicStrategy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		topics:   topics,
		semantic: opts.Semantic,
		pool:     opts.CandidatePool,
		scan:     opts.SemanticScanLimit,
		opts:     opts,
		logger:   logger,
	}
}

// EnsureIndex creates the search index if missing. Failures are logged, never returned:
// the service starts and serves what the store can answer.
func (s *Service) EnsureIndex(ctx context.Context) {
	if err := s.repo.EnsureIndex(ctx); err != nil {
		s.logger.Warn("Failed to ensure search index", zap.Error(err))
	}
}

// Search runs the hybrid strategy and returns one page with total and facets.
// A blank query returns an empty page without touching the store.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	if req.IsBlank() {
		return result.EmptyPage(req.Page()), nil
	}

	var (
		hits   []result.Hit
		total  int
		facets result.Facets
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = s.Hybrid(gctx, req)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gctx, req.Filters())
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		facets, err = s.repo.Facets(gctx)
		if err != nil {
			return fmt.Errorf("facets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return result.Page{}, err
	}

	return result.Page{
		Results:    result.Paginate(hits, req.Offset(), req.Limit()),
		Total:      total,
		Facets:     facets,
		Page:       req.Page(),
		TotalPages: result.TotalPages(total, req.Limit()),
	}, nil
}

// KeywordSearch ranks text matches of the query among PUBLISHED resources passing the filters.
// The hit score is the resource's click count; order follows the requested sort.
func (s *Service) KeywordSearch(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	if req.IsBlank() {
		return []result.Hit{}, nil
	}
	defer s.observe(mode.Keyword, time.Now())

	candidates, err := s.repo.Find(ctx, &request.CandidateQuery{
		Text:    req.Query(),
		Filters: req.Filters(),
		Sort:    req.Sort(),
		Limit:   s.pool,
	})
	if err != nil {
		s.count(mode.Keyword, "error")
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	snap := s.topics.Snapshot(ctx)
	terms := req.Terms()
	hits := make([]result.Hit, 0, len(candidates))
	for i := range candidates {
		r := &candidates[i]
		if !visible(snap, r) {
			continue
		}
		hits = append(hits, result.New(*r, float64(r.Clicks), highlights(terms, r.Title, r.Description)))
	}

	s.count(mode.Keyword, "ok")
	return hits, nil
}

// SemanticSearch scores embedded PUBLISHED resources passing the filters with the semantic
// strategy and returns the non-zero scores, highest first.
func (s *Service) SemanticSearch(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	if req.IsBlank() {
		return []result.Hit{}, nil
	}
	defer s.observe(mode.Semantic, time.Now())

	candidates, err := s.repo.Find(ctx, &request.CandidateQuery{
		Filters:          req.Filters(),
		RequireEmbedding: true,
		Limit:            s.scan,
	})
	if err != nil {
		s.count(mode.Semantic, "error")
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	snap := s.topics.Snapshot(ctx)
	terms := req.Terms()
	hits := make([]result.Hit, 0, len(candidates))
	for i := range candidates {
		r := &candidates[i]
		if !r.HasEmbedding() || !visible(snap, r) {
			continue
		}
		score := s.semantic.Score(terms, r)
		if score <= 0 {
			continue
		}
		hits = append(hits, result.New(*r, score, highlights(terms, r.Title, r.Description)))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score() > hits[j].Score()
	})

	s.count(mode.Semantic, "ok")
	return hits, nil
}

// Hybrid runs keyword and semantic strategies concurrently and fuses them with the request
// weights. A semantic failure degrades to keyword-only results; a keyword failure is returned.
func (s *Service) Hybrid(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	if req.IsBlank() {
		return []result.Hit{}, nil
	}
	defer s.observe(mode.Hybrid, time.Now())

	var (
		keyword, semantic []result.Hit
		semanticErr       error
	)

	// Plain group: a failing branch does not cancel its sibling.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		keyword, err = s.KeywordSearch(ctx, req)
		return err
	})
	g.Go(func() error {
		semantic, semanticErr = s.SemanticSearch(ctx, req)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.count(mode.Hybrid, "error")
		return nil, err
	}

	if semanticErr != nil {
		s.logger.Warn("Semantic search failed, serving keyword results",
			zap.String("query", req.Query()), zap.Error(semanticErr))
		if s.opts.Degradations != nil {
			s.opts.Degradations.Inc()
		}
		semantic = nil
	}

	s.count(mode.Hybrid, "ok")
	return fuseWeighted(keyword, semantic, req.Weights()), nil
}

// visible applies the publication gate and the active-topic filter.
func visible(snap *topic.Snapshot, r *resource.Resource) bool {
	return r.IsPublic() && snap.Allows(r)
}

func (s *Service) count(strategy mode.Mode, status string) {
	if s.opts.Requests != nil {
		s.opts.Requests.WithLabelValues(string(strategy), status).Inc()
	}
}

func (s *Service) observe(strategy mode.Mode, start time.Time) {
	if s.opts.Duration != nil {
		s.opts.Duration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	}
}

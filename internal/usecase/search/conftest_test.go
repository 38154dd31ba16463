package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/domain/topic"
)

// mockRepo implements Repository for tests. Find dispatches on RequireEmbedding.
type mockRepo struct {
	mu          sync.Mutex
	calls       int
	keywordFn   func(ctx context.Context, q *request.CandidateQuery) ([]resource.Resource, error)
	semanticFn  func(ctx context.Context, q *request.CandidateQuery) ([]resource.Resource, error)
	countFn     func(ctx context.Context, f request.Filters) (int, error)
	facetsFn    func(ctx context.Context) (result.Facets, error)
	ensureIdxFn func(ctx context.Context) error
}

func (m *mockRepo) touch() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockRepo) Find(ctx context.Context, q *request.CandidateQuery) ([]resource.Resource, error) {
	m.touch()
	if q.RequireEmbedding {
		if m.semanticFn != nil {
			return m.semanticFn(ctx, q)
		}
		return nil, nil
	}
	if m.keywordFn != nil {
		return m.keywordFn(ctx, q)
	}
	return nil, nil
}

func (m *mockRepo) Count(ctx context.Context, f request.Filters) (int, error) {
	m.touch()
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockRepo) Facets(ctx context.Context) (result.Facets, error) {
	m.touch()
	if m.facetsFn != nil {
		return m.facetsFn(ctx)
	}
	return result.EmptyFacets(), nil
}

func (m *mockRepo) EnsureIndex(ctx context.Context) error {
	m.touch()
	if m.ensureIdxFn != nil {
		return m.ensureIdxFn(ctx)
	}
	return nil
}

// staticTopics serves a fixed snapshot.
type staticTopics struct {
	snap *topic.Snapshot
}

func (s staticTopics) Snapshot(_ context.Context) *topic.Snapshot { return s.snap }

func allTopics() staticTopics {
	return staticTopics{snap: topic.Unconfigured(time.Now())}
}

func newTestService(t *testing.T, repo *mockRepo) *Service {
	t.Helper()
	return New(repo, allTopics(), Options{}, nil)
}

func mustRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	req, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func res(id, title string, clicks int64, embedded bool) resource.Resource {
	r := resource.Resource{
		ID:     id,
		Title:  title,
		Status: lifecycle.Published,
		Clicks: clicks,
	}
	if embedded {
		r.Embedding = []float32{0.1}
	}
	return r
}

func scores(hits []result.Hit) map[string]float64 {
	out := make(map[string]float64, len(hits))
	for i := range hits {
		out[hits[i].ID()] = hits[i].Score()
	}
	return out
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

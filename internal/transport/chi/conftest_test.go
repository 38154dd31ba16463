package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/repository/taxonomy"
	healthuc "github.com/cengkuru/costknowledgehub/internal/usecase/health"
)

const testAPIKey = "secret"

type mockResources struct {
	createFn      func(ctx context.Context, in *domres.Resource, actor string) (domres.Resource, error)
	getFn         func(ctx context.Context, id string) (domres.Resource, error)
	patchFn       func(ctx context.Context, id string, p *domres.Patch, actor string) (domres.Resource, error)
	recordClickFn func(ctx context.Context, id string) (int64, error)
}

func (m *mockResources) Create(ctx context.Context, in *domres.Resource, actor string) (domres.Resource, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in, actor)
	}
	r := *in
	r.ID = "new-id"
	return r, nil
}

func (m *mockResources) Get(ctx context.Context, id string) (domres.Resource, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return sampleResource(id), nil
}

func (m *mockResources) Patch(
	ctx context.Context, id string, p *domres.Patch, actor string,
) (domres.Resource, error) {
	if m.patchFn != nil {
		return m.patchFn(ctx, id, p, actor)
	}
	r := sampleResource(id)
	p.Apply(&r)
	return r, nil
}

func (m *mockResources) RecordClick(ctx context.Context, id string) (int64, error) {
	if m.recordClickFn != nil {
		return m.recordClickFn(ctx, id)
	}
	return 1, nil
}

type mockLifecycle struct {
	transitionFn   func(ctx context.Context, id string, target domlc.Status, actor, reason string) (domres.Resource, error)
	nextStatusesFn func(ctx context.Context, id string) (domlc.Status, []domlc.Status, error)
}

func (m *mockLifecycle) Transition(
	ctx context.Context, id string, target domlc.Status, actor, reason string,
) (domres.Resource, error) {
	if m.transitionFn != nil {
		return m.transitionFn(ctx, id, target, actor, reason)
	}
	r := sampleResource(id)
	r.Status = target
	return r, nil
}

func (m *mockLifecycle) NextStatuses(ctx context.Context, id string) (domlc.Status, []domlc.Status, error) {
	if m.nextStatusesFn != nil {
		return m.nextStatusesFn(ctx, id)
	}
	return domlc.Approved, domlc.NextStatuses(domlc.Approved), nil
}

type mockSearch struct {
	searchFn   func(ctx context.Context, req *request.Request) (result.Page, error)
	keywordFn  func(ctx context.Context, req *request.Request) ([]result.Hit, error)
	semanticFn func(ctx context.Context, req *request.Request) ([]result.Hit, error)
}

func (m *mockSearch) Search(ctx context.Context, req *request.Request) (result.Page, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return result.EmptyPage(req.Page()), nil
}

func (m *mockSearch) KeywordSearch(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	if m.keywordFn != nil {
		return m.keywordFn(ctx, req)
	}
	return nil, nil
}

func (m *mockSearch) SemanticSearch(ctx context.Context, req *request.Request) ([]result.Hit, error) {
	if m.semanticFn != nil {
		return m.semanticFn(ctx, req)
	}
	return nil, nil
}

type mockTopics struct {
	listFn    func(ctx context.Context) ([]taxonomy.Topic, error)
	replaceFn func(ctx context.Context, topics []taxonomy.Topic) error
}

func (m *mockTopics) List(ctx context.Context) ([]taxonomy.Topic, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTopics) Replace(ctx context.Context, topics []taxonomy.Topic) error {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, topics)
	}
	return nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type testServer struct {
	resources *mockResources
	lifecycle *mockLifecycle
	search    *mockSearch
	topics    *mockTopics
	health    *mockHealth
	handler   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		resources: &mockResources{},
		lifecycle: &mockLifecycle{},
		search:    &mockSearch{},
		topics:    &mockTopics{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.ComponentDatabase: healthuc.CheckOK},
		}},
	}
	srv := NewServer(ts.resources, ts.lifecycle, ts.search, ts.topics, ts.health, Options{
		APIKeys:         []string{testAPIKey},
		DefaultPageSize: 20,
		MaxPageSize:     50,
	}, nil)
	ts.handler = srv.Router()
	return ts
}

// do performs a request; write requests carry the test bearer token unless noAuth is set.
func (ts *testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if method != http.MethodGet {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		if headers[i+1] == "" {
			req.Header.Del(headers[i])
			continue
		}
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func sampleResource(id string) domres.Resource {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domres.Resource{
		ID:              id,
		Slug:            "assurance-manual",
		URL:             "https://example.org/assurance",
		Title:           "Assurance manual",
		Description:     "How to run an assurance process.",
		Tags:            []string{"assurance"},
		ResourceType:    domres.TypeGuide,
		Language:        "en",
		AccessLevel:     domres.AccessPublic,
		Status:          domlc.PendingReview,
		Source:          domres.SourceManual,
		PublicationDate: now,
		CreatedAt:       now,
		CreatedBy:       "seed",
		UpdatedAt:       now,
		UpdatedBy:       "seed",
	}
}

func hits(ids ...string) []result.Hit {
	out := make([]result.Hit, len(ids))
	for i, id := range ids {
		out[i] = result.New(sampleResource(id), float64(len(ids)-i), nil)
	}
	return out
}

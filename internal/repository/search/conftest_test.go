package search

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
	"github.com/cengkuru/costknowledgehub/internal/repository/resource"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchTextFn       func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchCountFn      func(ctx context.Context, index string, expr filter.Expression) (int, error)
	searchCountMultiFn func(ctx context.Context, index string, exprs []filter.Expression) ([]int, error)
	tagValuesFn        func(ctx context.Context, index, field string) ([]string, error)
	createIndexFn      func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn      func(ctx context.Context, name string) (bool, error)
	dropIndexFn        func(ctx context.Context, name string) error

	// kv backs Get and Set.
	kv map[string][]byte
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string, expr filter.Expression) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, expr)
	}
	return 0, nil
}

func (m *mockStore) SearchCountMulti(
	ctx context.Context, index string, exprs []filter.Expression,
) ([]int, error) {
	if m.searchCountMultiFn != nil {
		return m.searchCountMultiFn(ctx, index, exprs)
	}
	return make([]int, len(exprs)), nil
}

func (m *mockStore) TagValues(ctx context.Context, index, field string) ([]string, error) {
	if m.tagValuesFn != nil {
		return m.tagValuesFn(ctx, index, field)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	if m.kv == nil {
		m.kv = map[string][]byte{}
	}
	m.kv[key] = value
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, resource.NewKeys("")), ms
}

// entry renders a resource the way FT.SEARCH RETURN $ does.
func entry(t *testing.T, r *domres.Resource) db.SearchEntry {
	t.Helper()
	data, err := json.Marshal(resource.ToDoc(r))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return db.SearchEntry{
		Key:    "ckh:resource:" + r.ID,
		Fields: map[string]string{"$": string(data)},
	}
}

func published(id, title string) domres.Resource {
	return domres.Resource{
		ID:           id,
		Title:        title,
		ResourceType: domres.TypeGuide,
		Language:     "en",
		Status:       lifecycle.Published,
	}
}

// tagValues extracts the values of the first condition on key.
func tagValues(expr filter.Expression, key string) []string {
	for _, c := range expr.Conditions() {
		if c.Key() == key {
			return c.AnyOf()
		}
	}
	return nil
}

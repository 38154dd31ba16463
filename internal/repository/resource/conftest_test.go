package resource

import (
	"context"
	"testing"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn       func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn       func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonNumIncrByFn func(ctx context.Context, key, path string, delta int64) (int64, error)
	jsonUpdateFn    func(ctx context.Context, key string, ops []db.JSONOp) error
	setNXFn         func(ctx context.Context, key string, value []byte) (bool, error)
	delFn           func(ctx context.Context, key string) error
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return []byte("[]"), nil
}

func (m *mockStore) JSONNumIncrBy(ctx context.Context, key, path string, delta int64) (int64, error) {
	if m.jsonNumIncrByFn != nil {
		return m.jsonNumIncrByFn(ctx, key, path, delta)
	}
	return delta, nil
}

func (m *mockStore) JSONUpdate(ctx context.Context, key string, ops []db.JSONOp) error {
	if m.jsonUpdateFn != nil {
		return m.jsonUpdateFn(ctx, key, ops)
	}
	return nil
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return true, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, NewKeys("")), ms
}

func testResource(t *testing.T) domres.Resource {
	t.Helper()
	pub := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domres.Resource{
		ID:              "res-1",
		Slug:            "oc4ids-guide",
		URL:             "https://example.org/oc4ids",
		Title:           "OC4IDS Guide",
		Description:     "How to publish infrastructure data.",
		Tags:            []string{"oc4ids"},
		ResourceType:    domres.TypeGuide,
		Themes:          []string{"disclosure"},
		CountryPrograms: []string{"Uganda"},
		AccessLevel:     domres.AccessPublic,
		Language:        "en",
		PublicationDate: pub,
		Status:          lifecycle.Published,
		Clicks:          3,
		Embedding:       []float32{0.1, 0.2},
		Source:          domres.SourceManual,
		CreatedAt:       pub,
		UpdatedAt:       pub,
	}
}

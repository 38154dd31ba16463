package chi

import (
	"context"

	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/repository/taxonomy"
	healthuc "github.com/cengkuru/costknowledgehub/internal/usecase/health"
)

// ResourceService manages catalog entries.
type ResourceService interface {
	Create(ctx context.Context, in *domres.Resource, actor string) (domres.Resource, error)
	Get(ctx context.Context, id string) (domres.Resource, error)
	Patch(ctx context.Context, id string, p *domres.Patch, actor string) (domres.Resource, error)
	RecordClick(ctx context.Context, id string) (int64, error)
}

// LifecycleService moves resources through the content gate.
type LifecycleService interface {
	Transition(ctx context.Context, id string, target domlc.Status, actor, reason string) (domres.Resource, error)
	NextStatuses(ctx context.Context, id string) (domlc.Status, []domlc.Status, error)
}

// SearchService ranks public resources.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) (result.Page, error)
	KeywordSearch(ctx context.Context, req *request.Request) ([]result.Hit, error)
	SemanticSearch(ctx context.Context, req *request.Request) ([]result.Hit, error)
}

// TopicStore reads and replaces the topic taxonomy. Optional.
type TopicStore interface {
	List(ctx context.Context) ([]taxonomy.Topic, error)
	Replace(ctx context.Context, topics []taxonomy.Topic) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

package search

import (
	"context"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/domain/topic"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	// Find returns PUBLISHED resources matching the candidate query in index order.
	Find(ctx context.Context, q *request.CandidateQuery) ([]resource.Resource, error)
	// Count returns how many PUBLISHED resources match the filters.
	Count(ctx context.Context, f request.Filters) (int, error)
	// Facets counts PUBLISHED resources per classification value.
	Facets(ctx context.Context) (result.Facets, error)
	EnsureIndex(ctx context.Context) error
}

// TopicSnapshotter provides the current set of active categories.
type TopicSnapshotter interface {
	Snapshot(ctx context.Context) *topic.Snapshot
}

// SemanticStrategy scores a candidate resource against query terms.
// A zero score drops the candidate.
type SemanticStrategy interface {
	Score(terms []string, r *resource.Resource) float64
}

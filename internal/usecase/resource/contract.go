package resource

import (
	"context"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Repository defines the storage contract for resources.
type Repository interface {
	Create(ctx context.Context, r *domres.Resource) error
	Get(ctx context.Context, id string) (domres.Resource, error)
	// Update writes the fields of r changed by p, and the embedding when reembedded.
	Update(ctx context.Context, r *domres.Resource, p *domres.Patch, reembedded bool) error
	IncrementClicks(ctx context.Context, id string, at time.Time) (int64, error)
}

// Embedder vectorizes resource text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

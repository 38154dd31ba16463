package lifecycle

import (
	"context"

	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Repository defines the storage contract for status transitions.
type Repository interface {
	Get(ctx context.Context, id string) (resource.Resource, error)
	// Transition writes only the fields owned by the update.
	Transition(ctx context.Context, id string, u *domlc.Update) error
}

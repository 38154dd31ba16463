package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// store is the consumer interface for resources (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONNumIncrBy(ctx context.Context, key, path string, delta int64) (int64, error)
	JSONUpdate(ctx context.Context, key string, ops []db.JSONOp) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Del(ctx context.Context, key string) error
}

// Repo implements usecase/resource.Repository and usecase/lifecycle.Repository.
type Repo struct {
	store store
	keys  Keys
}

// New creates a resource repository.
func New(s store, keys Keys) *Repo {
	return &Repo{store: s, keys: keys}
}

// Create stores a new resource after reserving its slug and url.
// Either collision yields domain.ErrAlreadyExists and leaves nothing behind.
func (r *Repo) Create(ctx context.Context, res *domres.Resource) error {
	slugKey := r.keys.Slug(res.Slug)
	urlKey := r.keys.URL(res.URL)

	ok, err := r.store.SetNX(ctx, slugKey, []byte(res.ID))
	if err != nil {
		return fmt.Errorf("reserve slug %q: %w", res.Slug, err)
	}
	if !ok {
		return fmt.Errorf("slug %q: %w", res.Slug, domain.ErrAlreadyExists)
	}

	ok, err = r.store.SetNX(ctx, urlKey, []byte(res.ID))
	if err != nil {
		r.release(ctx, slugKey)
		return fmt.Errorf("reserve url: %w", err)
	}
	if !ok {
		r.release(ctx, slugKey)
		return fmt.Errorf("url %q: %w", res.URL, domain.ErrAlreadyExists)
	}

	if err := r.put(ctx, res); err != nil {
		r.release(ctx, slugKey)
		r.release(ctx, urlKey)
		return err
	}
	return nil
}

// Get returns a resource by id.
func (r *Repo) Get(ctx context.Context, id string) (domres.Resource, error) {
	key := r.keys.Resource(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domres.Resource{}, fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
		}
		return domres.Resource{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSONPath replies wrap the document in an array.
	var docs []Doc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domres.Resource{}, fmt.Errorf("unmarshal resource %s: %w", id, err)
	}
	if len(docs) == 0 {
		return domres.Resource{}, fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
	}
	return FromDoc(&docs[0]), nil
}

// put writes the whole document of a new resource.
func (r *Repo) put(ctx context.Context, res *domres.Resource) error {
	key := r.keys.Resource(res.ID)
	data, err := json.Marshal(ToDoc(res))
	if err != nil {
		return fmt.Errorf("marshal resource: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Transition stores a gate update of resource id. Only the lifecycle fields and the edit
// stamp are written, so concurrent clicks and edits survive and racing transitions each
// keep their history entry.
func (r *Repo) Transition(ctx context.Context, id string, u *lifecycle.Update) error {
	ops, err := transitionOps(u)
	if err != nil {
		return err
	}
	return r.update(ctx, id, ops)
}

// Update stores the fields of res changed by p, plus the embedding when reembedded.
func (r *Repo) Update(ctx context.Context, res *domres.Resource, p *domres.Patch, reembedded bool) error {
	ops, err := editOps(res, p, reembedded)
	if err != nil {
		return err
	}
	return r.update(ctx, res.ID, ops)
}

func (r *Repo) update(ctx context.Context, id string, ops []db.JSONOp) error {
	key := r.keys.Resource(id)
	if err := r.store.JSONUpdate(ctx, key, ops); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}

// IncrementClicks atomically bumps the click counter and records the click time.
func (r *Repo) IncrementClicks(ctx context.Context, id string, at time.Time) (int64, error) {
	key := r.keys.Resource(id)
	clicks, err := r.store.JSONNumIncrBy(ctx, key, "$.clicks", 1)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, fmt.Errorf("resource %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("json.numincrby %s: %w", key, err)
	}

	ts := strconv.Quote(at.UTC().Format(time.RFC3339Nano))
	if err := r.store.JSONSet(ctx, key, "$.lastClickedAt", []byte(ts)); err != nil {
		return clicks, fmt.Errorf("json.set %s lastClickedAt: %w", key, err)
	}
	return clicks, nil
}

// release drops a reservation key; failures only leak a reservation.
func (r *Repo) release(ctx context.Context, key string) {
	_ = r.store.Del(ctx, key)
}

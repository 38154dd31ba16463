package topic

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

const (
	// DefaultTTL is how long a loaded set of active categories is served before a refresh.
	DefaultTTL = 60 * time.Second
	// refreshTimeout bounds a taxonomy load, which outlives the request that triggered it.
	refreshTimeout = 5 * time.Second
)

// Source provides the currently active category names from the external taxonomy.
// configured is false when no taxonomy has been defined at all; topics is then empty.
type Source interface {
	ActiveTopics(ctx context.Context) (topics []string, configured bool, err error)
}

// Snapshot is an immutable, time-stamped set of active categories.
type Snapshot struct {
	active     map[string]struct{}
	configured bool
	loadedAt   time.Time
}

// NewSnapshot builds a snapshot of a configured taxonomy whose active topics are given.
// An empty topics list means every category is switched off.
func NewSnapshot(topics []string, loadedAt time.Time) *Snapshot {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		set[t] = struct{}{}
	}
	return &Snapshot{active: set, configured: true, loadedAt: loadedAt}
}

// Unconfigured builds a snapshot for a missing or never-loaded taxonomy. It excludes nothing.
func Unconfigured(loadedAt time.Time) *Snapshot {
	return &Snapshot{active: map[string]struct{}{}, loadedAt: loadedAt}
}

// Configured reports whether the snapshot reflects a defined taxonomy.
func (s *Snapshot) Configured() bool { return s != nil && s.configured }

// LoadedAt returns when the snapshot was loaded.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Len returns the number of active categories.
func (s *Snapshot) Len() int { return len(s.active) }

// IsActive reports whether category is in the set.
func (s *Snapshot) IsActive(category string) bool {
	_, ok := s.active[category]
	return ok
}

// Allows reports whether a resource may be shown. Uncategorised resources always pass,
// and without a configured taxonomy nothing is excluded.
func (s *Snapshot) Allows(r *resource.Resource) bool {
	if !s.Configured() {
		return true
	}
	c := CategoryFor(r)
	if c == "" {
		return true
	}
	return s.IsActive(c)
}

// Cache serves the active category set, refreshing it lazily once it is older than the TTL.
// Readers may see a set up to one TTL stale.
type Cache struct {
	source    Source
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	observe   func(ok bool)
	current   atomic.Pointer[Snapshot]
	refreshes singleflight.Group
}

// NewCache creates a cache over source. ttl <= 0 uses DefaultTTL.
func NewCache(source Source, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, ttl: ttl, now: time.Now, logger: logger}
}

// WithClock replaces the cache's clock (tests).
func (c *Cache) WithClock(now func() time.Time) *Cache {
	if now != nil {
		c.now = now
	}
	return c
}

// WithRefreshObserver registers a callback invoked after every refresh attempt.
func (c *Cache) WithRefreshObserver(fn func(ok bool)) *Cache {
	c.observe = fn
	return c
}

// Snapshot returns the current set, refreshing it first when missing or expired.
// A failed refresh keeps serving the previous set and retries after another TTL.
// The refresh is shared by concurrent readers, so it ignores the cancellation of ctx.
func (c *Cache) Snapshot(ctx context.Context) *Snapshot {
	snap := c.current.Load()
	if snap != nil && c.now().Sub(snap.loadedAt) < c.ttl {
		return snap
	}

	v, _, _ := c.refreshes.Do("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return c.refresh(rctx, snap), nil
	})
	return v.(*Snapshot)
}

func (c *Cache) refresh(ctx context.Context, previous *Snapshot) *Snapshot {
	now := c.now()
	topics, configured, err := c.source.ActiveTopics(ctx)
	if c.observe != nil {
		c.observe(err == nil)
	}
	if err != nil {
		c.logger.Warn("Failed to refresh active topics, serving previous set", zap.Error(err))
		snap := Unconfigured(now)
		if previous != nil {
			snap.active, snap.configured = previous.active, previous.configured
		}
		c.current.Store(snap)
		return snap
	}

	snap := Unconfigured(now)
	if configured {
		snap = NewSnapshot(topics, now)
	}
	c.current.Store(snap)
	c.logger.Debug("Refreshed active topics", zap.Int("count", snap.Len()), zap.Bool("configured", configured))
	return snap
}

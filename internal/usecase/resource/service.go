// Package resource manages catalog entries outside the publication workflow:
// creation, field edits, reads and click tracking.
package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// createdReason is recorded on the first status history entry.
const createdReason = "created"

// Service handles resource CRUD and click tracking.
type Service struct {
	repo   Repository
	embed  Embedder
	clicks prometheus.Counter
	now    func() time.Time
	logger *zap.Logger
}

// New creates a resource service. embed may be nil when no provider is configured;
// clicks may be nil to disable counting.
func New(repo Repository, embed Embedder, clicks prometheus.Counter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embed: embed, clicks: clicks, now: time.Now, logger: logger}
}

// WithClock replaces the service clock (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create validates and stores a new resource in its source's initial status.
// Lifecycle fields, clicks and ids supplied by the caller are ignored.
func (s *Service) Create(ctx context.Context, in *domres.Resource, actor string) (domres.Resource, error) {
	if actor == "" {
		return domres.Resource{}, domain.NewValidationError("actor", "is required")
	}

	r := *in
	r.ID = uuid.NewString()
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return domres.Resource{}, err
	}

	now := s.now().UTC()
	status := r.Source.InitialStatus()
	r.Status = status
	r.StatusHistory = []lifecycle.StatusChange{
		{Status: status, ChangedAt: now, ChangedBy: actor, Reason: createdReason},
	}
	r.PublishedAt = nil
	r.ArchivedAt = nil
	r.ArchivedReason = nil
	r.Clicks = 0
	r.LastClickedAt = nil
	r.AICitations = 0
	r.CreatedAt, r.UpdatedAt = now, now
	r.CreatedBy, r.UpdatedBy = actor, actor
	if r.LastVerified.IsZero() {
		r.LastVerified = now
	}

	r.Embedding = s.embedText(ctx, &r)

	if err := s.repo.Create(ctx, &r); err != nil {
		return domres.Resource{}, fmt.Errorf("create resource: %w", err)
	}

	s.logger.Info("Resource created",
		zap.String("resource_id", r.ID),
		zap.String("slug", r.Slug),
		zap.String("status", string(r.Status)),
	)
	return r, nil
}

// Get returns a resource by id regardless of status.
func (s *Service) Get(ctx context.Context, id string) (domres.Resource, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("get resource: %w", err)
	}
	return r, nil
}

// Patch applies field edits. Only the edited fields are written, so status, history
// and clicks are out of its reach; text changes refresh the embedding.
func (s *Service) Patch(ctx context.Context, id string, p *domres.Patch, actor string) (domres.Resource, error) {
	if p.IsEmpty() {
		return domres.Resource{}, domain.NewValidationError("patch", "no fields to update")
	}
	if actor == "" {
		return domres.Resource{}, domain.NewValidationError("actor", "is required")
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return domres.Resource{}, fmt.Errorf("get resource: %w", err)
	}

	p.Apply(&r)
	if err := r.Validate(); err != nil {
		return domres.Resource{}, err
	}

	reembedded := false
	if p.ChangesText() {
		if vec := s.embedText(ctx, &r); vec != nil {
			r.Embedding = vec
			reembedded = true
		}
	}
	r.UpdatedAt = s.now().UTC()
	r.UpdatedBy = actor

	if err := s.repo.Update(ctx, &r, p, reembedded); err != nil {
		return domres.Resource{}, fmt.Errorf("update resource: %w", err)
	}
	return r, nil
}

// RecordClick increments the click counter of resource id and returns the new count.
func (s *Service) RecordClick(ctx context.Context, id string) (int64, error) {
	n, err := s.repo.IncrementClicks(ctx, id, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("record click: %w", err)
	}
	if s.clicks != nil {
		s.clicks.Inc()
	}
	return n, nil
}

// embedText returns the embedding of the resource text, or nil when the provider is
// missing or fails. A resource without an embedding is still stored and keyword-searchable.
func (s *Service) embedText(ctx context.Context, r *domres.Resource) []float32 {
	if s.embed == nil {
		return nil
	}
	res, err := s.embed.Embed(ctx, r.Text())
	if err != nil {
		s.logger.Warn("Failed to embed resource, continuing without embedding",
			zap.String("slug", r.Slug), zap.Error(err))
		return nil
	}
	return res.Embedding
}

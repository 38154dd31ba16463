// Package lifecycle applies gate-approved status transitions to stored resources.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	domlc "github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Service moves resources through the publication workflow.
type Service struct {
	repo        Repository
	gate        *domlc.Gate
	transitions *prometheus.CounterVec
	logger      *zap.Logger
}

// New creates a lifecycle service.
// transitions is a counter vec with labels "from" and "to"; nil disables counting.
func New(repo Repository, gate *domlc.Gate, transitions *prometheus.CounterVec, logger *zap.Logger) *Service {
	if gate == nil {
		gate = domlc.NewGate()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, gate: gate, transitions: transitions, logger: logger}
}

// Transition moves resource id to target, appending one history entry.
// Illegal moves fail with an error wrapping domain.ErrInvalidTransition and leave the resource untouched.
func (s *Service) Transition(
	ctx context.Context, id string, target domlc.Status, actor, reason string,
) (resource.Resource, error) {
	if !target.IsValid() {
		return resource.Resource{}, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", target))
	}
	if actor == "" {
		return resource.Resource{}, domain.NewValidationError("actor", "is required")
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return resource.Resource{}, fmt.Errorf("get resource: %w", err)
	}

	from := r.Status
	update, err := s.gate.PrepareTransition(from, target, actor, reason)
	if err != nil {
		return resource.Resource{}, err
	}

	if err := s.repo.Transition(ctx, id, &update); err != nil {
		return resource.Resource{}, fmt.Errorf("store transition: %w", err)
	}
	r.ApplyTransition(update)

	if s.transitions != nil {
		s.transitions.WithLabelValues(string(from), string(target)).Inc()
	}
	s.logger.Info("Resource status changed",
		zap.String("resource_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor", actor),
	)
	return r, nil
}

// NextStatuses returns the current status of resource id and the statuses it may move to.
func (s *Service) NextStatuses(ctx context.Context, id string) (domlc.Status, []domlc.Status, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("get resource: %w", err)
	}
	return r.Status, domlc.NextStatuses(r.Status), nil
}

// Package taxonomy stores which display categories are switched on for public search.
package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cengkuru/costknowledgehub/internal/db"
	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/repository/resource"
)

// Topic is one taxonomy entry.
type Topic struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// store is the consumer interface for the taxonomy document (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements topic.Source over a single JSON document.
type Repo struct {
	store store
	key   string
}

// New creates a taxonomy repository.
func New(s store, keys resource.Keys) *Repo {
	return &Repo{store: s, key: keys.Taxonomy()}
}

// List returns every configured topic. A missing document is an empty taxonomy.
func (r *Repo) List(ctx context.Context) ([]Topic, error) {
	raw, err := r.store.JSONGet(ctx, r.key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []Topic{}, nil
		}
		return nil, fmt.Errorf("json.get %s: %w", r.key, err)
	}

	var wrapped [][]Topic
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unmarshal taxonomy: %w", err)
	}
	if len(wrapped) == 0 {
		return []Topic{}, nil
	}
	return wrapped[0], nil
}

// ActiveTopics returns the names of active topics. A missing or empty taxonomy is
// reported as not configured; a taxonomy with every topic switched off is configured
// and has no active names.
func (r *Repo) ActiveTopics(ctx context.Context) ([]string, bool, error) {
	topics, err := r.List(ctx)
	if err != nil {
		return nil, false, err
	}
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		if t.Active {
			names = append(names, t.Name)
		}
	}
	return names, len(topics) > 0, nil
}

// Replace overwrites the taxonomy.
func (r *Repo) Replace(ctx context.Context, topics []Topic) error {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return domain.NewValidationError("name", "is required")
		}
		if seen[name] {
			return domain.NewValidationError("name", fmt.Sprintf("duplicate topic %q", name))
		}
		seen[name] = true
	}
	if topics == nil {
		topics = []Topic{}
	}

	data, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal taxonomy: %w", err)
	}
	if err := r.store.JSONSet(ctx, r.key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", r.key, err)
	}
	return nil
}

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cengkuru/costknowledgehub/internal/db"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/mode"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/result"
	"github.com/cengkuru/costknowledgehub/internal/repository/resource"
)

// docField is the RETURN field carrying the whole JSON document.
const docField = "$"

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, expr filter.Expression) (int, error)
	SearchCountMulti(ctx context.Context, index string, exprs []filter.Expression) ([]int, error)
	TagValues(ctx context.Context, index, field string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store store
	keys  resource.Keys
}

// New creates a search repository.
func New(s store, keys resource.Keys) *Repo {
	return &Repo{store: s, keys: keys}
}

// EnsureIndex creates the resource index, or rebuilds it when the stored schema
// fingerprint differs from the current definition. Dropping keeps the documents;
// the new index picks them up by prefix.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := BuildIndex(r.keys)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	want := schemaFingerprint(def)

	exists, err := r.store.IndexExists(ctx, def.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists {
		current, err := r.store.Get(ctx, r.keys.IndexSchema())
		switch {
		case err == nil && string(current) == want:
			return nil
		case err != nil && !errors.Is(err, db.ErrKeyNotFound):
			return fmt.Errorf("read index schema: %w", err)
		}
		if err := r.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop outdated index %s: %w", def.Name, err)
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	if err := r.store.Set(ctx, r.keys.IndexSchema(), []byte(want)); err != nil {
		return fmt.Errorf("record index schema: %w", err)
	}
	return nil
}

// schemaFingerprint hashes the rendered FT.CREATE command.
func schemaFingerprint(def *db.IndexDefinition) string {
	sum := sha256.Sum256([]byte(def.String()))
	return hex.EncodeToString(sum[:])
}

// IndexReady reports whether the resource index exists.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.keys.Index())
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", r.keys.Index(), err)
	}
	return ok, nil
}

// Find returns the PUBLISHED resources matching q in index order.
func (r *Repo) Find(ctx context.Context, q *request.CandidateQuery) ([]domres.Resource, error) {
	expr, err := BuildExpression(q.Filters, q.RequireEmbedding)
	if err != nil {
		return nil, err
	}

	tq := &db.TextQuery{
		IndexName:    r.keys.Index(),
		Text:         q.Text,
		Filters:      expr,
		Sort:         sortBy(q.Sort),
		Limit:        q.Limit,
		ReturnFields: []string{docField},
	}

	sr, err := r.store.SearchText(ctx, tq)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", err)
	}
	return parseEntries(sr)
}

// Count returns how many PUBLISHED resources match the filters.
func (r *Repo) Count(ctx context.Context, f request.Filters) (int, error) {
	expr, err := BuildExpression(f, false)
	if err != nil {
		return 0, err
	}
	n, err := r.store.SearchCount(ctx, r.keys.Index(), expr)
	if err != nil {
		return 0, fmt.Errorf("count resources: %w", err)
	}
	return n, nil
}

// Facets counts PUBLISHED resources per value of each classification field.
func (r *Repo) Facets(ctx context.Context) (result.Facets, error) {
	facets := result.EmptyFacets()
	targets := []struct {
		field string
		dst   *[]result.FacetCount
	}{
		{FieldResourceType, &facets.ResourceTypes},
		{FieldThemes, &facets.Themes},
		{FieldCountryPrograms, &facets.CountryPrograms},
		{FieldLanguage, &facets.Languages},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			counts, err := r.facet(gctx, t.field)
			if err != nil {
				return err
			}
			*t.dst = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.EmptyFacets(), err
	}
	return facets, nil
}

// facet lists the field's values and counts each one among PUBLISHED resources.
// FT.TAGVALS includes values held only by non-public resources; they count zero and are dropped.
func (r *Repo) facet(ctx context.Context, field string) ([]result.FacetCount, error) {
	index := r.keys.Index()
	values, err := r.store.TagValues(ctx, index, field)
	if err != nil {
		return nil, fmt.Errorf("facet %s values: %w", field, err)
	}
	if len(values) == 0 {
		return []result.FacetCount{}, nil
	}

	exprs := make([]filter.Expression, len(values))
	base := publishedOnly()
	for i, v := range values {
		c, err := filter.NewMatch(field, v)
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", field, err)
		}
		exprs[i] = base.And(c)
	}

	counts, err := r.store.SearchCountMulti(ctx, index, exprs)
	if err != nil {
		return nil, fmt.Errorf("facet %s counts: %w", field, err)
	}

	out := make([]result.FacetCount, 0, len(values))
	for i, v := range values {
		if i < len(counts) && counts[i] > 0 {
			out = append(out, result.FacetCount{Value: v, Count: counts[i]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

func sortBy(s mode.Sort) *db.SortBy {
	switch s {
	case mode.SortPopularity:
		return &db.SortBy{Field: FieldClicks, Desc: true}
	case mode.SortRecency:
		return &db.SortBy{Field: FieldPublicationTs, Desc: true}
	default:
		return nil
	}
}

func parseEntries(sr *db.SearchResult) ([]domres.Resource, error) {
	out := make([]domres.Resource, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		raw, ok := e.Fields[docField]
		if !ok {
			continue
		}
		// RETURN $ yields the bare document; JSON.GET-style replies wrap it in an array.
		var doc resource.Doc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			var docs []resource.Doc
			if err2 := json.Unmarshal([]byte(raw), &docs); err2 != nil || len(docs) == 0 {
				return nil, fmt.Errorf("decode %s: %w", e.Key, err)
			}
			doc = docs[0]
		}
		out = append(out, resource.FromDoc(&doc))
	}
	return out, nil
}

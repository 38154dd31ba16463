package request

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxFilterValues bounds each array filter.
	MaxFilterValues = 32
)

// Default hybrid fusion weights.
const (
	DefaultKeywordWeight  = 0.6
	DefaultSemanticWeight = 0.4
)

// DateRange bounds publicationDate inclusively. Either side may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Filters are the caller-supplied structured filters.
// Fields combine with AND; values inside an array field combine with OR.
type Filters struct {
	ResourceTypes   []resource.Type
	Themes          []string
	CountryPrograms []string
	Language        string
	Audience        []string
	DateRange       *DateRange
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	return len(f.ResourceTypes) == 0 && len(f.Themes) == 0 && len(f.CountryPrograms) == 0 &&
		f.Language == "" && len(f.Audience) == 0 && f.DateRange == nil
}

// Validate checks enum membership, the language allow-list and date range ordering.
func (f Filters) Validate() error {
	for _, t := range f.ResourceTypes {
		if !t.IsValid() {
			return domain.NewValidationError("resourceTypes", fmt.Sprintf("unknown resource type %q", t))
		}
	}
	if f.Language != "" && !resource.IsSupportedLanguage(f.Language) {
		return domain.NewValidationError("language", fmt.Sprintf("unsupported language %q", f.Language))
	}
	arrays := map[string]int{
		"resourceTypes":   len(f.ResourceTypes),
		"themes":          len(f.Themes),
		"countryPrograms": len(f.CountryPrograms),
		"audience":        len(f.Audience),
	}
	for name, n := range arrays {
		if n > MaxFilterValues {
			return domain.NewValidationError(name, fmt.Sprintf("too many values (max %d)", MaxFilterValues))
		}
	}
	if dr := f.DateRange; dr != nil && dr.From != nil && dr.To != nil && dr.From.After(*dr.To) {
		return domain.NewValidationError("dateRange", "from must not be after to")
	}
	return nil
}

// Weights are the hybrid fusion weights. No normalisation is applied.
type Weights struct {
	Keyword  float64
	Semantic float64
}

// Validate rejects negative and non-finite weights, which would make fused scores unordered.
func (w Weights) Validate() error {
	checks := []struct {
		field string
		v     float64
	}{
		{"keywordWeight", w.Keyword},
		{"semanticWeight", w.Semantic},
	}
	for _, c := range checks {
		switch {
		case math.IsNaN(c.v) || math.IsInf(c.v, 0):
			return domain.NewValidationError(c.field, "must be a finite number")
		case c.v < 0:
			return domain.NewValidationError(c.field, "must not be negative")
		}
	}
	return nil
}

// DefaultWeights returns the 0.6/0.4 keyword/semantic split.
func DefaultWeights() Weights {
	return Weights{Keyword: DefaultKeywordWeight, Semantic: DefaultSemanticWeight}
}

// Params are the raw inputs of New.
type Params struct {
	Query   string
	Filters Filters
	Sort    mode.Sort
	Page    int
	Limit   int
	Weights *Weights
}

// Request is a validated search query.
type Request struct {
	query   string
	filters Filters
	sort    mode.Sort
	page    int
	limit   int
	weights Weights
}

// New validates and normalizes search parameters.
// Defaults: sort=relevance, page=1, limit=20, weights=0.6/0.4. Limit is clamped to MaxLimit.
// A blank query is valid: searches short-circuit to an empty result.
func New(p Params) (Request, error) {
	if len(p.Query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}
	if p.Sort == "" {
		p.Sort = mode.SortRelevance
	}
	if !p.Sort.IsValid() {
		return Request{}, domain.NewValidationError("sort", fmt.Sprintf("invalid sort %q", p.Sort))
	}
	if p.Page < 0 {
		return Request{}, domain.NewValidationError("page", "must be positive")
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit < 0 {
		return Request{}, domain.NewValidationError("limit", "must be positive")
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	w := DefaultWeights()
	if p.Weights != nil {
		if err := p.Weights.Validate(); err != nil {
			return Request{}, err
		}
		w = *p.Weights
	}
	if err := p.Filters.Validate(); err != nil {
		return Request{}, err
	}

	return Request{
		query:   p.Query,
		filters: p.Filters,
		sort:    p.Sort,
		page:    p.Page,
		limit:   p.Limit,
		weights: w,
	}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// IsBlank reports whether the query is empty or whitespace only.
func (r *Request) IsBlank() bool { return strings.TrimSpace(r.query) == "" }

// Terms returns the lowercase whitespace-separated query terms.
func (r *Request) Terms() []string { return strings.Fields(strings.ToLower(r.query)) }

// Filters returns the structured filters.
func (r *Request) Filters() Filters { return r.filters }

// Sort returns the keyword ordering preference.
func (r *Request) Sort() mode.Sort { return r.sort }

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the index of the first result of the page.
func (r *Request) Offset() int { return (r.page - 1) * r.limit }

// Weights returns the hybrid fusion weights.
func (r *Request) Weights() Weights { return r.weights }

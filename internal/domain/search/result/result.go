package result

import (
	"github.com/cengkuru/costknowledgehub/internal/domain/resource"
)

// Hit is a single ranked search result.
type Hit struct {
	resource   resource.Resource
	score      float64
	highlights []string
}

// New creates a search hit.
func New(r resource.Resource, score float64, highlights []string) Hit {
	return Hit{resource: r, score: score, highlights: highlights}
}

// Resource returns the matched resource.
func (h *Hit) Resource() resource.Resource { return h.resource }

// ID returns the matched resource id.
func (h *Hit) ID() string { return h.resource.ID }

// Score returns the strategy-specific score.
func (h *Hit) Score() float64 { return h.score }

// Highlights returns the matching sentences, if any.
func (h *Hit) Highlights() []string { return h.highlights }

// WithScore returns a copy with a different score.
func (h Hit) WithScore(score float64) Hit {
	h.score = score
	return h
}

// FacetCount is one distinct value of a classification field and how many resources hold it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets are the per-field value counts over the public catalog.
type Facets struct {
	ResourceTypes   []FacetCount `json:"resourceTypes"`
	Themes          []FacetCount `json:"themes"`
	CountryPrograms []FacetCount `json:"countryPrograms"`
	Languages       []FacetCount `json:"languages"`
}

// EmptyFacets returns facets with every field present and empty.
func EmptyFacets() Facets {
	return Facets{
		ResourceTypes:   []FacetCount{},
		Themes:          []FacetCount{},
		CountryPrograms: []FacetCount{},
		Languages:       []FacetCount{},
	}
}

// Page is one page of an orchestrated search.
type Page struct {
	Results    []Hit
	Total      int
	Facets     Facets
	Page       int
	TotalPages int
}

// EmptyPage returns a page with no results, zero total and empty facets.
func EmptyPage(page int) Page {
	return Page{Results: []Hit{}, Facets: EmptyFacets(), Page: page}
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginate returns the window [offset, offset+limit) of hits, empty past the end.
func Paginate(hits []Hit, offset, limit int) []Hit {
	if offset < 0 || limit <= 0 || offset >= len(hits) {
		return []Hit{}
	}
	end := min(offset+limit, len(hits))
	return hits[offset:end]
}

package chi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/cengkuru/costknowledgehub/internal/domain"
	domres "github.com/cengkuru/costknowledgehub/internal/domain/resource"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/mode"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
)

const dateOnly = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC3339. A date-only value is midnight UTC,
// or the last instant of that day when endOfDay is set.
func parseDate(field, raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, fmt.Sprintf("invalid date %q (want YYYY-MM-DD or RFC3339)", raw))
	}
	return t.UTC(), nil
}

func parseOptionalDate(field, raw string, endOfDay bool) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return parseDate(field, raw, endOfDay)
}

// searchQuery is the bound query string of the search endpoints.
type searchQuery struct {
	Text            string
	Sort            string
	Language        string
	From            string
	To              string
	Page            int
	Limit           int
	ResourceTypes   []string
	Themes          []string
	CountryPrograms []string
	Audience        []string
	KeywordWeight   *float64
	SemanticWeight  *float64
}

// bindSearchQuery decodes the form-style, exploded query parameters. Array filters accept
// repeated keys, comma-separated values or both. Blank values count as absent.
func bindSearchQuery(raw url.Values) (searchQuery, error) {
	q := nonBlank(raw)
	var sq searchQuery
	params := []struct {
		name    string
		dst     any
		problem string
	}{
		{"q", &sq.Text, "must be given once"},
		{"sort", &sq.Sort, "must be given once"},
		{"language", &sq.Language, "must be given once"},
		{"from", &sq.From, "must be given once"},
		{"to", &sq.To, "must be given once"},
		{"page", &sq.Page, "must be an integer"},
		{"limit", &sq.Limit, "must be an integer"},
		{"resourceTypes", &sq.ResourceTypes, "must be a list of strings"},
		{"themes", &sq.Themes, "must be a list of strings"},
		{"countryPrograms", &sq.CountryPrograms, "must be a list of strings"},
		{"audience", &sq.Audience, "must be a list of strings"},
		{"keywordWeight", &sq.KeywordWeight, "must be a number"},
		{"semanticWeight", &sq.SemanticWeight, "must be a number"},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, q, p.dst); err != nil {
			return searchQuery{}, domain.NewValidationError(p.name, p.problem)
		}
	}

	for _, list := range []*[]string{&sq.ResourceTypes, &sq.Themes, &sq.CountryPrograms, &sq.Audience} {
		*list = splitCommas(*list)
	}
	return sq, nil
}

// nonBlank copies q with values trimmed and blank values dropped.
func nonBlank(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for name, values := range q {
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				out[name] = append(out[name], v)
			}
		}
	}
	return out
}

func splitCommas(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// searchRequestFrom builds a validated search request from query parameters.
func (s *Server) searchRequestFrom(r *http.Request) (request.Request, error) {
	sq, err := bindSearchQuery(r.URL.Query())
	if err != nil {
		return request.Request{}, err
	}

	filters, err := filtersFrom(&sq)
	if err != nil {
		return request.Request{}, err
	}

	limit := sq.Limit
	if limit == 0 {
		limit = s.opts.DefaultPageSize
	}
	if s.opts.MaxPageSize > 0 && limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}

	return request.New(request.Params{
		Query:   sq.Text,
		Filters: filters,
		Sort:    mode.Sort(sq.Sort),
		Page:    sq.Page,
		Limit:   limit,
		Weights: s.weightsFrom(&sq),
	})
}

func filtersFrom(sq *searchQuery) (request.Filters, error) {
	f := request.Filters{
		Themes:          sq.Themes,
		CountryPrograms: sq.CountryPrograms,
		Audience:        sq.Audience,
		Language:        sq.Language,
	}
	for _, t := range sq.ResourceTypes {
		f.ResourceTypes = append(f.ResourceTypes, domres.Type(t))
	}

	from, err := parseOptionalDate("from", sq.From, false)
	if err != nil {
		return request.Filters{}, err
	}
	to, err := parseOptionalDate("to", sq.To, true)
	if err != nil {
		return request.Filters{}, err
	}
	if !from.IsZero() || !to.IsZero() {
		dr := &request.DateRange{}
		if !from.IsZero() {
			dr.From = &from
		}
		if !to.IsZero() {
			dr.To = &to
		}
		f.DateRange = dr
	}
	return f, nil
}

// weightsFrom applies per-request weight overrides on top of the configured defaults.
// request.New rejects non-finite and negative results.
func (s *Server) weightsFrom(sq *searchQuery) *request.Weights {
	w := s.opts.Weights
	if sq.KeywordWeight != nil {
		w.Keyword = *sq.KeywordWeight
	}
	if sq.SemanticWeight != nil {
		w.Semantic = *sq.SemanticWeight
	}
	return &w
}

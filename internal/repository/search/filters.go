package search

import (
	"fmt"

	"github.com/cengkuru/costknowledgehub/internal/domain/lifecycle"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
	"github.com/cengkuru/costknowledgehub/internal/domain/search/request"
)

// BuildExpression translates caller filters into an index pre-filter restricted to PUBLISHED.
// Array fields become any-of conditions; the date range bounds publicationTs inclusively.
func BuildExpression(f request.Filters, requireEmbedding bool) (filter.Expression, error) {
	status, err := filter.NewMatch(FieldStatus, string(lifecycle.Published))
	if err != nil {
		return filter.Expression{}, err
	}
	conds := []filter.Condition{status}

	add := func(key string, values []string) error {
		if len(values) == 0 {
			return nil
		}
		c, err := filter.NewAnyOf(key, values...)
		if err != nil {
			return fmt.Errorf("filter %s: %w", key, err)
		}
		conds = append(conds, c)
		return nil
	}

	types := make([]string, len(f.ResourceTypes))
	for i, t := range f.ResourceTypes {
		types[i] = string(t)
	}
	if err := add(FieldResourceType, types); err != nil {
		return filter.Expression{}, err
	}
	if err := add(FieldThemes, f.Themes); err != nil {
		return filter.Expression{}, err
	}
	if err := add(FieldCountryPrograms, f.CountryPrograms); err != nil {
		return filter.Expression{}, err
	}
	if err := add(FieldAudience, f.Audience); err != nil {
		return filter.Expression{}, err
	}
	if f.Language != "" {
		if err := add(FieldLanguage, []string{f.Language}); err != nil {
			return filter.Expression{}, err
		}
	}

	if dr := f.DateRange; dr != nil && (dr.From != nil || dr.To != nil) {
		var from, to *filter.Bound
		if dr.From != nil {
			from = filter.Inclusive(float64(dr.From.Unix()))
		}
		if dr.To != nil {
			to = filter.Inclusive(float64(dr.To.Unix()))
		}
		r, err := filter.Between(from, to)
		if err != nil {
			return filter.Expression{}, fmt.Errorf("filter dateRange: %w", err)
		}
		c, err := filter.NewRange(FieldPublicationTs, r)
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	if requireEmbedding {
		c, err := filter.NewMatch(FieldHasEmbedding, "true")
		if err != nil {
			return filter.Expression{}, err
		}
		conds = append(conds, c)
	}

	return filter.NewExpression(conds...)
}

// publishedOnly is the facet scope: status filter and nothing else.
func publishedOnly() filter.Expression {
	status, _ := filter.NewMatch(FieldStatus, string(lifecycle.Published))
	expr, _ := filter.NewExpression(status)
	return expr
}

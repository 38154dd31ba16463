package db

import (
	"errors"

	"github.com/cengkuru/costknowledgehub/internal/domain/search/filter"
)

// SortBy orders results by a SORTABLE field instead of text relevance.
type SortBy struct {
	Field string
	Desc  bool
}

// TextQuery is a full-text search narrowed by pre-filters.
type TextQuery struct {
	IndexName string
	// Text is free text; its terms are OR-ed. Empty text matches every document passing Filters.
	Text    string
	Filters filter.Expression
	Sort    *SortBy
	Offset  int
	Limit   int
	// ReturnFields limits the fields loaded per hit; "$" loads the whole JSON document.
	ReturnFields []string
}

// Validate rejects queries the server would refuse or silently clamp.
func (q *TextQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case q.Limit <= 0:
		return errors.New("limit must be positive")
	case q.Offset < 0:
		return errors.New("offset must not be negative")
	}
	return nil
}

// SearchResult is one page of hits plus the total match count.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit: the document key and its returned fields.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
